package document

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testCodec() *XMLCodec {
	n := 0
	return &XMLCodec{
		now: func() time.Time { return fixedNow },
		newUUID: func() string {
			n++
			return fmt.Sprintf("gen-%d", n)
		},
	}
}

func ts(min int) time.Time {
	return time.Date(2023, 1, 2, 3, min, 5, 123456789, time.UTC)
}

func sampleDatabase() *models.Database {
	return &models.Database{
		Meta: models.Meta{
			Name:             "Test",
			Description:      "desc",
			Generator:        "vaultkeeper",
			CreationTime:     ts(1),
			ModificationTime: ts(2),
			FormatVersion:    "1.0",
		},
		Groups: []models.Group{
			{UUID: "g1", Name: "Email", IconID: 3, CreationTime: ts(3), ModificationTime: ts(4), Expanded: true},
			{UUID: "g2", Name: "Work", ParentUUID: "g1", CreationTime: ts(5), ModificationTime: ts(6)},
			{UUID: "g3", Name: "Banking", CreationTime: ts(7), ModificationTime: ts(8)},
		},
		Entries: []models.Entry{
			{
				UUID: "e0", Title: "root entry", Password: "pw0",
				Times: models.Times{CreationTime: ts(9), ModificationTime: ts(9), LastAccessTime: ts(9)},
			},
			{
				UUID: "e1", Title: "Example", Username: "user", Password: "abc123 <&>",
				URL: "https://example.com", Notes: "line1\nline2",
				Tags: []string{"mail", "personal"}, IconID: 1, ForegroundColor: "#FF0000",
				GroupUUID: "g1",
				CustomFields: []models.CustomField{
					{Key: "pin", Value: "1234", Protected: true},
					{Key: "hint", Value: "blue"},
				},
				History: []models.HistoryItem{
					{Password: "old1", ModificationTime: ts(10)},
					{Password: "old1", ModificationTime: ts(11)},
				},
				Times: models.Times{
					CreationTime: ts(12), ModificationTime: ts(13), LastAccessTime: ts(14),
					ExpiryTime: ts(15), Expires: true,
				},
			},
			{
				UUID: "e2", Title: "Deep", GroupUUID: "g2",
				Times: models.Times{CreationTime: ts(16), ModificationTime: ts(16), LastAccessTime: ts(16)},
			},
		},
		DeletedObjects: []models.DeletedObject{{UUID: "gone", DeletionTime: ts(17)}},
	}
}

func TestXMLCodec_RoundTrip(t *testing.T) {
	c := testCodec()
	in := sampleDatabase()

	data, err := c.Serialize(in)
	require.NoError(t, err)

	out, err := c.Deserialize(data)
	require.NoError(t, err)

	if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func hostileDatabase(v string) *models.Database {
	times := models.Times{CreationTime: ts(1), ModificationTime: ts(1), LastAccessTime: ts(1)}
	return &models.Database{
		Meta: models.Meta{
			Name: "n", Description: v, Generator: "g", FormatVersion: "1.0",
			CreationTime: ts(0), ModificationTime: ts(0),
		},
		Groups: []models.Group{
			{UUID: "g", Name: v, CreationTime: ts(1), ModificationTime: ts(1)},
		},
		Entries: []models.Entry{
			{
				UUID: "e", GroupUUID: "g", Title: v, Username: v, Password: v, URL: v, Notes: v,
				ForegroundColor: v,
				CustomFields: []models.CustomField{
					{Key: v, Value: v, Protected: true},
					{Key: "plain", Value: v},
				},
				History: []models.HistoryItem{{Password: v, ModificationTime: ts(2)}},
				Times:   times,
			},
		},
	}
}

func TestXMLCodec_RoundTripHostileValues(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		encoded bool
	}{
		{"control byte", "a\x01b", true},
		{"nul", "\x00", true},
		{"escape and bell", "\x1b[0m\a", true},
		{"invalid utf8", "bad\xffutf8", true},
		{"truncated rune", "\xe2\x82", true},
		{"noncharacter", "x\uFFFEy", true},
		{"cdata terminator", "a]]>b", false},
		{"markup", `<Entry attr="x">&amp;</Entry>`, false},
		{"crlf", "line1\r\nline2\r", false},
		{"lone cr", "\r", false},
		{"tabs and newlines", "\tx\n\n", false},
		{"surrounding whitespace", "  padded  ", false},
		{"whitespace only", " \n ", false},
		{"replacement char", "\uFFFD", false},
		{"astral", "key \U0001F511", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testCodec()
			in := hostileDatabase(tc.value)

			data, err := c.Serialize(in)
			require.NoError(t, err)
			require.Equal(t, tc.encoded, strings.Contains(string(data), `Encoding="base64"`))

			out, err := c.Deserialize(data)
			require.NoError(t, err)

			if diff := cmp.Diff(in, out, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestXMLCodec_EncodedPasswordAttributes(t *testing.T) {
	db := hostileDatabase("a\x01b")
	data, err := testCodec().Serialize(db)
	require.NoError(t, err)

	require.Contains(t, string(data), `<Password Protected="True" Encoding="base64">YQFi</Password>`)
	require.Contains(t, string(data), `<Title Encoding="base64">YQFi</Title>`)
}

func TestXMLCodec_BadValueEncoding(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"bad base64", `<VaultFile><Root><Entry><Password Encoding="base64">!!!</Password></Entry></Root></VaultFile>`},
		{"unknown encoding", `<VaultFile><Root><Entry><Title Encoding="rot13">x</Title></Entry></Root></VaultFile>`},
		{"bad group name", `<VaultFile><Root><Group><Name Encoding="base64">%</Name></Group></Root></VaultFile>`},
		{"bad meta name", `<VaultFile><Meta><DatabaseName Encoding="hex">00</DatabaseName></Meta></VaultFile>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := testCodec().Deserialize([]byte(tc.doc))
			require.ErrorIs(t, err, common.ErrParse)
		})
	}
}

// TestXMLCodec_ReordersToCanonical pins the documented normalization: flat
// slices come back in pre-order and "root" parents come back empty.
func TestXMLCodec_ReordersToCanonical(t *testing.T) {
	times := models.Times{CreationTime: ts(1), ModificationTime: ts(1), LastAccessTime: ts(1)}
	group := func(id, parent string) models.Group {
		return models.Group{UUID: id, Name: id, ParentUUID: parent, CreationTime: ts(1), ModificationTime: ts(1)}
	}
	entry := func(id, group string) models.Entry {
		return models.Entry{UUID: id, Title: id, GroupUUID: group, Times: times}
	}

	cases := []struct {
		name        string
		groups      []models.Group
		entries     []models.Entry
		wantGroups  []string
		wantParents []string
		wantEntries []string
	}{
		{
			name:        "child listed before sibling",
			groups:      []models.Group{group("g1", ""), group("g2", ""), group("g3", "g1")},
			wantGroups:  []string{"g1", "g3", "g2"},
			wantParents: []string{"", "g1", ""},
		},
		{
			name:        "grouped entry before root entry",
			groups:      []models.Group{group("g1", "")},
			entries:     []models.Entry{entry("in-g1", "g1"), entry("at-root", "")},
			wantGroups:  []string{"g1"},
			wantParents: []string{""},
			wantEntries: []string{"at-root", "in-g1"},
		},
		{
			name:        "entries follow group pre-order",
			groups:      []models.Group{group("b", ""), group("a", ""), group("b1", "b")},
			entries:     []models.Entry{entry("ea", "a"), entry("eb1", "b1"), entry("eb", "b")},
			wantGroups:  []string{"b", "b1", "a"},
			wantParents: []string{"", "b", ""},
			wantEntries: []string{"eb", "eb1", "ea"},
		},
		{
			name:        "reserved root parent",
			groups:      []models.Group{group("g1", models.RootGroupUUID)},
			entries:     []models.Entry{entry("e", models.RootGroupUUID)},
			wantGroups:  []string{"g1"},
			wantParents: []string{""},
			wantEntries: []string{"e"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testCodec()
			in := &models.Database{
				Meta:    models.Meta{Name: "n", Generator: "g", FormatVersion: "1.0", CreationTime: ts(0), ModificationTime: ts(0)},
				Groups:  tc.groups,
				Entries: tc.entries,
			}

			data, err := c.Serialize(in)
			require.NoError(t, err)
			out, err := c.Deserialize(data)
			require.NoError(t, err)

			var gotGroups, gotParents, gotEntries []string
			for _, g := range out.Groups {
				gotGroups = append(gotGroups, g.UUID)
				gotParents = append(gotParents, g.ParentUUID)
			}
			for _, e := range out.Entries {
				gotEntries = append(gotEntries, e.UUID)
			}
			require.Equal(t, tc.wantGroups, gotGroups)
			require.Equal(t, tc.wantParents, gotParents)
			if tc.wantEntries == nil {
				require.Empty(t, gotEntries)
			} else {
				require.Equal(t, tc.wantEntries, gotEntries)
			}
		})
	}
}

func TestXMLCodec_ProtectedAttributes(t *testing.T) {
	data, err := testCodec().Serialize(sampleDatabase())
	require.NoError(t, err)
	doc := string(data)

	require.True(t, strings.HasPrefix(doc, "<?xml"))
	require.Contains(t, doc, `<Password Protected="True">abc123 &lt;&amp;&gt;</Password>`)
	require.Contains(t, doc, `<Password Protected="True">old1</Password>`)
	require.Contains(t, doc, `<Value Protected="True">1234</Value>`)
	require.Contains(t, doc, `<Value>blue</Value>`)
	require.Contains(t, doc, `<Tags>mail,personal</Tags>`)
}

func TestXMLCodec_MinimalDocumentHeals(t *testing.T) {
	c := testCodec()
	doc := `<VaultFile><Meta/><Root>
		<Group><Name>G</Name><Entry><Title>t</Title><Tags> a , ,b </Tags></Entry></Group>
		<Entry><UUID></UUID><Title>x</Title></Entry>
	</Root></VaultFile>`

	db, err := c.Deserialize([]byte(doc))
	require.NoError(t, err)

	require.Equal(t, models.DefaultDatabaseName, db.Meta.Name)
	require.Equal(t, models.DefaultGenerator, db.Meta.Generator)
	require.Equal(t, models.FormatVersion, db.Meta.FormatVersion)
	require.Equal(t, fixedNow, db.Meta.CreationTime)
	require.Equal(t, fixedNow, db.Meta.ModificationTime)

	require.Len(t, db.Groups, 1)
	g := db.Groups[0]
	require.NotEmpty(t, g.UUID)
	require.Equal(t, fixedNow, g.CreationTime)

	require.Len(t, db.Entries, 2)
	require.Equal(t, "x", db.Entries[0].Title)
	require.Empty(t, db.Entries[0].GroupUUID)
	require.NotEmpty(t, db.Entries[0].UUID)

	e := db.Entries[1]
	require.Equal(t, g.UUID, e.GroupUUID)
	require.Equal(t, []string{"a", "b"}, e.Tags)
	require.Equal(t, fixedNow, e.Times.CreationTime)
	require.Equal(t, fixedNow, e.Times.LastAccessTime)
	require.True(t, e.Times.ExpiryTime.IsZero())
	require.False(t, e.Times.Expires)
	require.NotEqual(t, db.Entries[0].UUID, e.UUID)
}

func TestXMLCodec_DuplicateAndReservedIDs(t *testing.T) {
	c := testCodec()
	doc := `<VaultFile><Root>
		<Group><UUID>root</UUID><Name>a</Name></Group>
		<Entry><UUID>dup</UUID></Entry>
		<Entry><UUID>dup</UUID></Entry>
	</Root></VaultFile>`

	db, err := c.Deserialize([]byte(doc))
	require.NoError(t, err)
	require.NotEqual(t, models.RootGroupUUID, db.Groups[0].UUID)
	require.Equal(t, "dup", db.Entries[0].UUID)
	require.NotEqual(t, "dup", db.Entries[1].UUID)
}

func TestXMLCodec_OrphansWrittenUnderRoot(t *testing.T) {
	c := testCodec()
	in := &models.Database{
		Meta: models.Meta{Name: "n", Generator: "g", FormatVersion: "1.0", CreationTime: ts(0), ModificationTime: ts(0)},
		Groups: []models.Group{
			{UUID: "lost", Name: "lost", ParentUUID: "missing", CreationTime: ts(1), ModificationTime: ts(1)},
			{UUID: "a", Name: "a", ParentUUID: "b", CreationTime: ts(1), ModificationTime: ts(1)},
			{UUID: "b", Name: "b", ParentUUID: "a", CreationTime: ts(1), ModificationTime: ts(1)},
		},
		Entries: []models.Entry{
			{UUID: "e", Title: "stray", GroupUUID: "nowhere", Times: models.Times{CreationTime: ts(2), ModificationTime: ts(2), LastAccessTime: ts(2)}},
			{UUID: "f", Title: "in b", GroupUUID: "b", Times: models.Times{CreationTime: ts(2), ModificationTime: ts(2), LastAccessTime: ts(2)}},
		},
	}

	data, err := c.Serialize(in)
	require.NoError(t, err)
	out, err := c.Deserialize(data)
	require.NoError(t, err)

	require.Len(t, out.Groups, 3)
	require.Equal(t, "lost", out.Groups[0].UUID)
	require.Empty(t, out.Groups[0].ParentUUID)
	require.Equal(t, "a", out.Groups[1].UUID)
	require.Empty(t, out.Groups[1].ParentUUID)
	require.Equal(t, "b", out.Groups[2].UUID)
	require.Equal(t, "a", out.Groups[2].ParentUUID)

	require.Len(t, out.Entries, 2)
	require.Equal(t, "e", out.Entries[0].UUID)
	require.Empty(t, out.Entries[0].GroupUUID)
	require.Equal(t, "f", out.Entries[1].UUID)
	require.Equal(t, "b", out.Entries[1].GroupUUID)
}

func TestXMLCodec_CanonicalOrder(t *testing.T) {
	c := testCodec()
	in := &models.Database{
		Meta: models.Meta{Name: "n", Generator: "g", FormatVersion: "1.0", CreationTime: ts(0), ModificationTime: ts(0)},
		Groups: []models.Group{
			{UUID: "child", Name: "child", ParentUUID: "top", CreationTime: ts(1), ModificationTime: ts(1)},
			{UUID: "top", Name: "top", CreationTime: ts(1), ModificationTime: ts(1)},
		},
	}

	data, err := c.Serialize(in)
	require.NoError(t, err)
	out, err := c.Deserialize(data)
	require.NoError(t, err)

	require.Equal(t, "top", out.Groups[0].UUID)
	require.Equal(t, "child", out.Groups[1].UUID)
}

func TestXMLCodec_ParseErrors(t *testing.T) {
	c := testCodec()
	cases := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not xml", "hello"},
		{"wrong root", "<Other/>"},
		{"truncated", "<VaultFile><Meta>"},
		{"bad meta time", "<VaultFile><Meta><CreationTime>yesterday</CreationTime></Meta></VaultFile>"},
		{"bad entry time", "<VaultFile><Root><Entry><Times><ExpiryTime>x</ExpiryTime></Times></Entry></Root></VaultFile>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Deserialize([]byte(tc.doc))
			require.ErrorIs(t, err, common.ErrParse)
		})
	}
}

func TestXMLCodec_SerializeNil(t *testing.T) {
	_, err := NewXMLCodec().Serialize(nil)
	require.ErrorIs(t, err, common.ErrGeneric)
}

func TestXMLCodec_ZeroValueUsable(t *testing.T) {
	var c XMLCodec
	db, err := c.Deserialize([]byte("<VaultFile/>"))
	require.NoError(t, err)
	require.Equal(t, models.DefaultDatabaseName, db.Meta.Name)
}
