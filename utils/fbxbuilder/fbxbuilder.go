package fbxbuilder

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"

	"github.com/mogaika/fbxloader/fbx/cache"
)

const (
	fbxVersion         = 7400
	creator            = "FBX SDK/FBX Plugins version 2013.3 build=20121223"
	applicationVendor  = "mogaika"
	applicationName    = "fbxloader"
	applicationVersion = "1.0"

	// fixed, exports of one scene are byte for byte equal
	dateTimeGMT  = "01/01/1970 00:00:00.000"
	creationTime = "1970-01-01 10:00:00:000"

	firstObjectId = 1000000
)

var fileId = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// FBXBuilder collects objects and connections of a binary FBX 7.4 file.
// Exported scene objects are cached by their source id.
type FBXBuilder struct {
	f        *fbx.FBX
	exported *cache.Cache
	lastId   int64
	// extra files written next to the fbx by WriteZip
	attachments map[string][]byte

	objects     *fbx.Node
	connections *fbx.Node
}

func New(filename string) *FBXBuilder {
	f := &FBXBuilder{
		f:           fbx.NewFBX(fbxVersion),
		exported:    cache.NewCache(),
		lastId:      firstObjectId,
		attachments: make(map[string][]byte),
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
	f.Root().AddNodes(
		headerExtension(filename),
		bfbx73.FileId(fileId),
		bfbx73.CreationTime(creationTime),
		bfbx73.Creator(creator),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(f.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("SourceObject", "object", "", ""),
					bfbx73.P("ActiveAnimStackName", "KString", "", "", ""),
				),
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		definitions(),
		f.objects,
		f.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

func applicationInfo(prefix string) []*fbx.Node {
	return []*fbx.Node{
		bfbx73.P(prefix, "Compound", "", ""),
		bfbx73.P(prefix+"|ApplicationVendor", "KString", "", "", applicationVendor),
		bfbx73.P(prefix+"|ApplicationName", "KString", "", "", applicationName),
		bfbx73.P(prefix+"|ApplicationVersion", "KString", "", "", applicationVersion),
		bfbx73.P(prefix+"|DateTime_GMT", "DateTime", "", "", dateTimeGMT),
	}
}

func headerExtension(filename string) *fbx.Node {
	props := bfbx73.Properties70().AddNodes(
		bfbx73.P("DocumentUrl", "KString", "Url", "", filename),
		bfbx73.P("SrcDocumentUrl", "KString", "Url", "", filename),
	)
	props.AddNodes(applicationInfo("Original")...)
	props.AddNodes(bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(filename)))
	props.AddNodes(applicationInfo("LastSaved")...)

	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(fbxVersion),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970),
			bfbx73.Month(1),
			bfbx73.Day(1),
			bfbx73.Hour(10),
			bfbx73.Minute(0),
			bfbx73.Second(0),
			bfbx73.Millisecond(0),
		),
		bfbx73.Creator(creator),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.MetaData().AddNodes(
				bfbx73.Version(100),
				bfbx73.Title(""),
				bfbx73.Subject(""),
				bfbx73.Author(""),
				bfbx73.Keywords(""),
				bfbx73.Revision(""),
				bfbx73.Comment(""),
			),
			props,
		),
	)
}

// Y up, Z front, X right, unit scale of 1 cm
var axisSettings = []struct {
	name  string
	value int32
}{
	{"UpAxis", 1}, {"UpAxisSign", 1},
	{"FrontAxis", 2}, {"FrontAxisSign", 1},
	{"CoordAxis", 0}, {"CoordAxisSign", 1},
	{"OriginalUpAxis", 1}, {"OriginalUpAxisSign", 1},
}

func globalSettings() *fbx.Node {
	props := bfbx73.Properties70()
	for _, s := range axisSettings {
		props.AddNodes(bfbx73.P(s.name, "int", "Integer", "", s.value))
	}
	props.AddNodes(
		bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("OriginalUnitScaleFactor", "double", "Number", "", float64(1)),
		bfbx73.P("AmbientColor", "ColorRGB", "Color", "", float64(0), float64(0), float64(0)),
	)
	return bfbx73.GlobalSettings().AddNodes(bfbx73.Version(1000), props)
}

// definitions lists property templates for the object types AddScene writes.
// Counts are filled in by updateDefinitions before writing.
func definitions() *fbx.Node {
	return bfbx73.Definitions().AddNodes(
		bfbx73.Version(100),
		bfbx73.Count(1),
		bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1)),
		bfbx73.ObjectType("Model").AddNodes(
			bfbx73.Count(0),
			bfbx73.PropertyTemplate("FbxNode").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("QuaternionInterpolate", "enum", "", "", int32(0)),
					bfbx73.P("Show", "bool", "", "", int32(1)),
					bfbx73.P("Lcl Translation", "Lcl Translation", "", "A", float64(0), float64(0), float64(0)),
					bfbx73.P("Lcl Rotation", "Lcl Rotation", "", "A", float64(0), float64(0), float64(0)),
					bfbx73.P("Lcl Scaling", "Lcl Scaling", "", "A", float64(1), float64(1), float64(1)),
					bfbx73.P("Visibility", "Visibility", "", "A", float64(1)),
				),
			),
		),
		bfbx73.ObjectType("Geometry").AddNodes(
			bfbx73.Count(0),
			bfbx73.PropertyTemplate("FbxMesh").AddNodes(
				bfbx73.Properties70().AddNodes(
					bfbx73.P("Color", "ColorRGB", "Color", "", float64(1), float64(1), float64(1)),
					bfbx73.P("Primary Visibility", "bool", "", "", int32(1)),
					bfbx73.P("Casts Shadows", "bool", "", "", int32(1)),
					bfbx73.P("Receive Shadows", "bool", "", "", int32(1)),
				),
			),
		),
	)
}

func (f *FBXBuilder) updateDefinitions() {
	counts := make(map[string]int32)
	for _, object := range f.objects.Nodes {
		counts[object.Name]++
	}

	defs := f.Root().GetNode("Definitions")
	total := int32(1) // GlobalSettings
	for name, count := range counts {
		total += count

		var objectType *fbx.Node
		for _, ot := range defs.GetNodes("ObjectType") {
			if ot.Properties[0].(string) == name {
				objectType = ot
			}
		}
		if objectType == nil {
			objectType = bfbx73.ObjectType(name)
			defs.AddNode(objectType)
		}
		objectType.GetOrAddNode(bfbx73.Count(0)).Properties[0] = count
	}
	defs.GetOrAddNode(bfbx73.Count(0)).Properties[0] = total
}

func (f *FBXBuilder) Root() *fbx.Node {
	return &f.f.Root
}

func (f *FBXBuilder) GetCached(id int64) interface{} {
	return f.exported.Get(id)
}

// GetCachedOr returns what was exported for id, calling create the first time.
func (f *FBXBuilder) GetCachedOr(id int64, create func() interface{}) interface{} {
	if f.exported.Has(id) {
		return f.exported.Get(id)
	}
	v := create()
	f.exported.Add(id, v)
	return v
}

func (f *FBXBuilder) GenerateId() int64 {
	f.lastId++
	return f.lastId
}

func (f *FBXBuilder) AddObjects(nodes ...*fbx.Node)     { f.objects.AddNodes(nodes...) }
func (f *FBXBuilder) AddConnections(nodes ...*fbx.Node) { f.connections.AddNodes(nodes...) }

// Attach adds a file that WriteZip stores next to the fbx.
func (f *FBXBuilder) Attach(name string, data []byte) {
	f.attachments[name] = data
}

// Write encodes the file into w. fbx.Write seeks to absolute offsets,
// so it always writes a fresh temp file that is copied afterwards.
func (f *FBXBuilder) Write(w io.Writer) error {
	f.updateDefinitions()

	tempFile, err := os.CreateTemp("", "fbxexport.*.fbx")
	if err != nil {
		return errors.Wrapf(err, "Unable to create temp file")
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, f.f); err != nil {
		return errors.Wrapf(err, "Unable to write fbx")
	}
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

// WriteZip stores the fbx as name followed by the attachments in name order.
func (f *FBXBuilder) WriteZip(w io.Writer, name string) error {
	zw := zip.NewWriter(w)

	fw, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "Can't create zip entry %q", name)
	}
	if err := f.Write(fw); err != nil {
		return errors.Wrapf(err, "Fbx exporting failed")
	}

	names := make([]string, 0, len(f.attachments))
	for n := range f.attachments {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fw, err := zw.Create(n)
		if err != nil {
			return errors.Wrapf(err, "Can't create zip entry %q", n)
		}
		if _, err := fw.Write(f.attachments[n]); err != nil {
			return errors.Wrapf(err, "Can't write zip entry %q", n)
		}
	}
	return zw.Close()
}
