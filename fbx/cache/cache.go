package cache

// Cache remembers what an exporter produced for an FBX object id.
type Cache struct {
	d map[int64]interface{}
}

func (c *Cache) Add(id int64, d interface{}) {
	c.d[id] = d
}

func (c *Cache) Get(id int64) interface{} {
	if d, e := c.d[id]; e {
		return d
	} else {
		return nil
	}
}

func (c *Cache) Has(id int64) bool {
	_, e := c.d[id]
	return e
}

func (c *Cache) Len() int {
	return len(c.d)
}

func NewCache() *Cache {
	return &Cache{d: make(map[int64]interface{})}
}
