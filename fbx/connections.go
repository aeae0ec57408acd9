package fbx

// Connection is a directed child -> parent edge from the Connections section.
type Connection struct {
	Type            string
	From            int64
	To              int64
	Relationship    string
	HasRelationship bool
}

// C entries are (type marker, child, parent, optional relationship).
func connectionFromProperties(props []Property) (Connection, bool) {
	var c Connection
	if len(props) < 3 || !props[1].IsNumeric() || !props[2].IsNumeric() {
		return c, false
	}
	c.Type, _ = props[0].Text()
	c.From, _ = props[1].Int64()
	c.To, _ = props[2].Int64()
	if len(props) > 3 {
		c.Relationship, c.HasRelationship = props[3].Text()
	}
	return c, true
}

type Link struct {
	ID              int64
	Relationship    string
	HasRelationship bool
}

type Links struct {
	Parents  []Link
	Children []Link
}

// Graph maps every id mentioned by a connection to its adjacency lists.
type Graph map[int64]*Links

func (g Graph) entry(id int64) *Links {
	l, ok := g[id]
	if !ok {
		l = &Links{Parents: []Link{}, Children: []Link{}}
		g[id] = l
	}
	return l
}

// BuildGraph keeps input order and does not deduplicate edges.
func BuildGraph(conns []Connection) Graph {
	g := make(Graph)
	for _, c := range conns {
		from := g.entry(c.From)
		to := g.entry(c.To)
		from.Parents = append(from.Parents, Link{ID: c.To, Relationship: c.Relationship, HasRelationship: c.HasRelationship})
		to.Children = append(to.Children, Link{ID: c.From, Relationship: c.Relationship, HasRelationship: c.HasRelationship})
	}
	return g
}

func (g Graph) Parents(id int64) []Link {
	if l, ok := g[id]; ok {
		return l.Parents
	}
	return nil
}

func (g Graph) Children(id int64) []Link {
	if l, ok := g[id]; ok {
		return l.Children
	}
	return nil
}
