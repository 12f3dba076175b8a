package document

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/google/uuid"
)

// XMLCodec serializes a models.Database to the vault's XML document and back.
type XMLCodec struct {
	now     func() time.Time
	newUUID func() string
}

// NewXMLCodec returns a codec that heals missing timestamps with the current
// UTC time and missing identifiers with random UUIDs.
func NewXMLCodec() *XMLCodec {
	return &XMLCodec{now: models.Now, newUUID: uuid.NewString}
}

// Serialize renders db as an XML document. Groups are written depth-first;
// groups and entries whose parent cannot be reached from the root are
// written directly under <Root>.
func (c *XMLCodec) Serialize(db *models.Database) ([]byte, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", common.ErrGeneric)
	}

	doc := xmlVaultFile{
		Meta: xmlMeta{
			Generator:        db.Meta.Generator,
			Name:             optionalValue(db.Meta.Name),
			Description:      optionalValue(db.Meta.Description),
			CreationTime:     formatTime(db.Meta.CreationTime),
			ModificationTime: formatTime(db.Meta.ModificationTime),
			FormatVersion:    db.Meta.FormatVersion,
		},
	}

	t := newTreeWriter(db)
	doc.Root.Entries = t.entries[rootKey]
	doc.Root.Groups = t.children(rootKey)
	for _, g := range db.Groups {
		if !t.visited[g.UUID] {
			doc.Root.Groups = append(doc.Root.Groups, t.group(g))
		}
	}
	for _, id := range t.orphanEntries {
		doc.Root.Entries = append(doc.Root.Entries, t.entries[id]...)
	}

	if len(db.DeletedObjects) > 0 {
		doc.Root.DeletedObjects = &xmlDeletedObject{}
		for _, d := range db.DeletedObjects {
			doc.Root.DeletedObjects.Items = append(doc.Root.DeletedObjects.Items, xmlDeleted{
				UUID:         d.UUID,
				DeletionTime: formatTime(d.DeletionTime),
			})
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "\t")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%w: failed to encode document: %v", common.ErrGeneric, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("%w: failed to encode document: %v", common.ErrGeneric, err)
	}
	return buf.Bytes(), nil
}

// Deserialize parses an XML document into a models.Database. Malformed XML,
// unparsable timestamps and bad value encodings fail with common.ErrParse;
// absent values are filled in.
//
// The flat slices come back in canonical order, not in the order they had
// when serialized: Groups in depth-first pre-order, Entries directly under
// the root first and then each group's entries in that same group order.
// Top-level groups and root entries carry an empty parent even if they were
// written with the reserved "root" id.
func (c *XMLCodec) Deserialize(data []byte) (*models.Database, error) {
	var doc xmlVaultFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrParse, err)
	}

	if c.now == nil || c.newUUID == nil {
		c = NewXMLCodec()
	}
	r := &treeReader{codec: c, parsedAt: c.now(), byGroup: map[string][]models.Entry{}, seen: map[string]bool{}}
	db := &models.Database{}

	var err error
	if db.Meta, err = r.meta(doc.Meta); err != nil {
		return nil, err
	}

	rootEntries, err := r.entries(doc.Root.Entries, "")
	if err != nil {
		return nil, err
	}
	if err := r.groups(doc.Root.Groups, ""); err != nil {
		return nil, err
	}

	db.Groups = r.flat
	db.Entries = rootEntries
	for _, g := range db.Groups {
		db.Entries = append(db.Entries, r.byGroup[g.UUID]...)
	}

	if doc.Root.DeletedObjects != nil {
		for _, d := range doc.Root.DeletedObjects.Items {
			ts, err := r.time(d.DeletionTime)
			if err != nil {
				return nil, err
			}
			db.DeletedObjects = append(db.DeletedObjects, models.DeletedObject{UUID: d.UUID, DeletionTime: ts})
		}
	}

	return db, nil
}

const rootKey = ""

// treeWriter indexes a flat database by parent so it can be emitted as
// nested elements.
type treeWriter struct {
	groups        map[string][]models.Group
	entries       map[string][]xmlEntry
	orphanEntries []string
	visited       map[string]bool
}

func newTreeWriter(db *models.Database) *treeWriter {
	t := &treeWriter{
		groups:  map[string][]models.Group{},
		entries: map[string][]xmlEntry{},
		visited: map[string]bool{},
	}

	known := map[string]bool{}
	for _, g := range db.Groups {
		known[g.UUID] = true
		parent := g.ParentUUID
		if models.IsRoot(parent) {
			parent = rootKey
		}
		t.groups[parent] = append(t.groups[parent], g)
	}

	for _, e := range db.Entries {
		parent := e.GroupUUID
		if models.IsRoot(parent) {
			parent = rootKey
		} else if !known[parent] {
			if _, ok := t.entries[parent]; !ok {
				t.orphanEntries = append(t.orphanEntries, parent)
			}
		}
		t.entries[parent] = append(t.entries[parent], encodeEntry(e))
	}
	return t
}

func (t *treeWriter) children(parent string) []xmlGroup {
	var out []xmlGroup
	for _, g := range t.groups[parent] {
		if t.visited[g.UUID] {
			continue
		}
		out = append(out, t.group(g))
	}
	return out
}

func (t *treeWriter) group(g models.Group) xmlGroup {
	t.visited[g.UUID] = true
	return xmlGroup{
		UUID:             g.UUID,
		Name:             textValue(g.Name),
		IconID:           g.IconID,
		CreationTime:     formatTime(g.CreationTime),
		ModificationTime: formatTime(g.ModificationTime),
		Expanded:         formatBool(g.Expanded),
		Entries:          t.entries[g.UUID],
		Groups:           t.children(g.UUID),
	}
}

func encodeEntry(e models.Entry) xmlEntry {
	out := xmlEntry{
		UUID:            e.UUID,
		IconID:          e.IconID,
		ForegroundColor: optionalValue(e.ForegroundColor),
		Tags:            optionalValue(strings.Join(e.Tags, ",")),
		Title:           textValue(e.Title),
		Username:        textValue(e.Username),
		Password:        protectedValue(e.Password),
		URL:             textValue(e.URL),
		Notes:           textValue(e.Notes),
		Times: xmlTimes{
			CreationTime:     formatTime(e.Times.CreationTime),
			ModificationTime: formatTime(e.Times.ModificationTime),
			LastAccessTime:   formatTime(e.Times.LastAccessTime),
			ExpiryTime:       formatTime(e.Times.ExpiryTime),
			Expires:          formatBool(e.Times.Expires),
		},
	}

	for _, f := range e.CustomFields {
		v := textValue(f.Value)
		if f.Protected {
			v.Protected = boolTrue
		}
		out.CustomFields = append(out.CustomFields, xmlCustomField{Key: textValue(f.Key), Value: v})
	}

	if len(e.History) > 0 {
		out.History = &xmlHistory{}
		for _, h := range e.History {
			out.History.Items = append(out.History.Items, xmlHistoryItem{
				Password:         protectedValue(h.Password),
				ModificationTime: formatTime(h.ModificationTime),
			})
		}
	}
	return out
}

// treeReader flattens nested elements back into the model, healing as it
// goes.
type treeReader struct {
	codec    *XMLCodec
	parsedAt time.Time
	flat     []models.Group
	byGroup  map[string][]models.Entry
	seen     map[string]bool
}

func (r *treeReader) meta(m xmlMeta) (models.Meta, error) {
	out := models.Meta{
		Generator:     m.Generator,
		FormatVersion: m.FormatVersion,
	}

	var err error
	if out.Name, err = m.Name.decode(); err != nil {
		return models.Meta{}, err
	}
	if out.Description, err = m.Description.decode(); err != nil {
		return models.Meta{}, err
	}
	if out.Name == "" {
		out.Name = models.DefaultDatabaseName
	}
	if out.Generator == "" {
		out.Generator = models.DefaultGenerator
	}
	if out.FormatVersion == "" {
		out.FormatVersion = models.FormatVersion
	}

	if out.CreationTime, err = r.time(m.CreationTime); err != nil {
		return models.Meta{}, err
	}
	if out.ModificationTime, err = r.time(m.ModificationTime); err != nil {
		return models.Meta{}, err
	}
	return out, nil
}

func (r *treeReader) groups(in []xmlGroup, parent string) error {
	for _, xg := range in {
		g := models.Group{
			UUID:       r.id(xg.UUID),
			IconID:     xg.IconID,
			ParentUUID: parent,
			Expanded:   parseBool(xg.Expanded),
		}
		if g.UUID == models.RootGroupUUID {
			g.UUID = r.codec.newUUID()
		}

		var err error
		if g.Name, err = xg.Name.decode(); err != nil {
			return err
		}
		if g.CreationTime, err = r.time(xg.CreationTime); err != nil {
			return err
		}
		if g.ModificationTime, err = r.time(xg.ModificationTime); err != nil {
			return err
		}
		r.flat = append(r.flat, g)

		entries, err := r.entries(xg.Entries, g.UUID)
		if err != nil {
			return err
		}
		r.byGroup[g.UUID] = append(r.byGroup[g.UUID], entries...)

		if err := r.groups(xg.Groups, g.UUID); err != nil {
			return err
		}
	}
	return nil
}

func (r *treeReader) entries(in []xmlEntry, group string) ([]models.Entry, error) {
	var out []models.Entry
	for _, xe := range in {
		e, err := r.entry(xe, group)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *treeReader) entry(xe xmlEntry, group string) (models.Entry, error) {
	e := models.Entry{
		UUID:      r.id(xe.UUID),
		IconID:    xe.IconID,
		GroupUUID: group,
	}

	var tags string
	for _, f := range []struct {
		v   *xmlValue
		dst *string
	}{
		{&xe.Title, &e.Title},
		{&xe.Username, &e.Username},
		{&xe.Password, &e.Password},
		{&xe.URL, &e.URL},
		{&xe.Notes, &e.Notes},
		{xe.ForegroundColor, &e.ForegroundColor},
		{xe.Tags, &tags},
	} {
		s, err := f.v.decode()
		if err != nil {
			return models.Entry{}, err
		}
		*f.dst = s
	}
	e.Tags = splitTags(tags)

	for _, f := range xe.CustomFields {
		key, err := f.Key.decode()
		if err != nil {
			return models.Entry{}, err
		}
		value, err := f.Value.decode()
		if err != nil {
			return models.Entry{}, err
		}
		e.CustomFields = append(e.CustomFields, models.CustomField{
			Key:       key,
			Value:     value,
			Protected: parseBool(f.Value.Protected),
		})
	}

	if xe.History != nil {
		for _, h := range xe.History.Items {
			ts, err := r.time(h.ModificationTime)
			if err != nil {
				return models.Entry{}, err
			}
			pw, err := h.Password.decode()
			if err != nil {
				return models.Entry{}, err
			}
			e.History = append(e.History, models.HistoryItem{Password: pw, ModificationTime: ts})
		}
	}

	var err error
	if e.Times.CreationTime, err = r.time(xe.Times.CreationTime); err != nil {
		return models.Entry{}, err
	}
	if e.Times.ModificationTime, err = r.time(xe.Times.ModificationTime); err != nil {
		return models.Entry{}, err
	}
	if e.Times.LastAccessTime, err = r.time(xe.Times.LastAccessTime); err != nil {
		return models.Entry{}, err
	}
	if xe.Times.ExpiryTime != "" {
		if e.Times.ExpiryTime, err = parseTime(xe.Times.ExpiryTime); err != nil {
			return models.Entry{}, err
		}
	}
	e.Times.Expires = parseBool(xe.Times.Expires)

	return e, nil
}

// id returns s, or a fresh identifier when s is empty or already used in
// this document.
func (r *treeReader) id(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || r.seen[s] {
		s = r.codec.newUUID()
	}
	r.seen[s] = true
	return s
}

// time parses s, substituting the parse time when it is absent.
func (r *treeReader) time(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return r.parsedAt, nil
	}
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q", common.ErrParse, s)
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func splitTags(s string) []string {
	var out []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
