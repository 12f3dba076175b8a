package document

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
)

const (
	boolTrue  = "True"
	boolFalse = "False"

	encodingBase64 = "base64"
)

type xmlVaultFile struct {
	XMLName xml.Name `xml:"VaultFile"`
	Meta    xmlMeta  `xml:"Meta"`
	Root    xmlRoot  `xml:"Root"`
}

type xmlMeta struct {
	Generator        string    `xml:"Generator,omitempty"`
	Name             *xmlValue `xml:"DatabaseName,omitempty"`
	Description      *xmlValue `xml:"DatabaseDescription,omitempty"`
	CreationTime     string    `xml:"CreationTime,omitempty"`
	ModificationTime string    `xml:"ModificationTime,omitempty"`
	FormatVersion    string    `xml:"FormatVersion,omitempty"`
}

type xmlRoot struct {
	Entries        []xmlEntry        `xml:"Entry"`
	Groups         []xmlGroup        `xml:"Group"`
	DeletedObjects *xmlDeletedObject `xml:"DeletedObjects"`
}

type xmlDeletedObject struct {
	Items []xmlDeleted `xml:"DeletedObject"`
}

type xmlDeleted struct {
	UUID         string `xml:"UUID"`
	DeletionTime string `xml:"DeletionTime,omitempty"`
}

type xmlGroup struct {
	UUID             string     `xml:"UUID"`
	Name             xmlValue   `xml:"Name"`
	IconID           int        `xml:"IconID"`
	CreationTime     string     `xml:"Times>CreationTime,omitempty"`
	ModificationTime string     `xml:"Times>LastModificationTime,omitempty"`
	Expanded         string     `xml:"IsExpanded,omitempty"`
	Entries          []xmlEntry `xml:"Entry"`
	Groups           []xmlGroup `xml:"Group"`
}

type xmlEntry struct {
	UUID            string           `xml:"UUID"`
	IconID          int              `xml:"IconID"`
	ForegroundColor *xmlValue        `xml:"ForegroundColor,omitempty"`
	Tags            *xmlValue        `xml:"Tags,omitempty"`
	Title           xmlValue         `xml:"Title"`
	Username        xmlValue         `xml:"UserName"`
	Password        xmlValue         `xml:"Password"`
	URL             xmlValue         `xml:"URL"`
	Notes           xmlValue         `xml:"Notes"`
	CustomFields    []xmlCustomField `xml:"CustomField"`
	Times           xmlTimes         `xml:"Times"`
	History         *xmlHistory      `xml:"History"`
}

// xmlValue is a text value that may be marked as protected. Text that XML
// cannot carry verbatim (invalid UTF-8, characters outside the XML Char
// production) is stored base64 encoded with Encoding="base64".
type xmlValue struct {
	Protected string `xml:"Protected,attr,omitempty"`
	Encoding  string `xml:"Encoding,attr,omitempty"`
	Text      string `xml:",chardata"`
}

func textValue(s string) xmlValue {
	if xmlSafe(s) {
		return xmlValue{Text: s}
	}
	return xmlValue{Encoding: encodingBase64, Text: base64.StdEncoding.EncodeToString([]byte(s))}
}

func protectedValue(s string) xmlValue {
	v := textValue(s)
	v.Protected = boolTrue
	return v
}

// optionalValue returns nil for the empty string so the element is omitted.
func optionalValue(s string) *xmlValue {
	if s == "" {
		return nil
	}
	v := textValue(s)
	return &v
}

// decode returns the original text. A nil value decodes to "".
func (v *xmlValue) decode() (string, error) {
	if v == nil {
		return "", nil
	}
	switch v.Encoding {
	case "":
		return v.Text, nil
	case encodingBase64:
		b, err := base64.StdEncoding.DecodeString(v.Text)
		if err != nil {
			return "", fmt.Errorf("%w: bad base64 value: %v", common.ErrParse, err)
		}
		return string(b), nil
	}
	return "", fmt.Errorf("%w: unknown value encoding %q", common.ErrParse, v.Encoding)
}

// xmlSafe reports whether encoding/xml writes s back unchanged.
func xmlSafe(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= utf8.MaxRune:
		default:
			return false
		}
	}
	return true
}

type xmlCustomField struct {
	Key   xmlValue `xml:"Key"`
	Value xmlValue `xml:"Value"`
}

type xmlTimes struct {
	CreationTime     string `xml:"CreationTime,omitempty"`
	ModificationTime string `xml:"LastModificationTime,omitempty"`
	LastAccessTime   string `xml:"LastAccessTime,omitempty"`
	ExpiryTime       string `xml:"ExpiryTime,omitempty"`
	Expires          string `xml:"Expires,omitempty"`
}

type xmlHistory struct {
	Items []xmlHistoryItem `xml:"Item"`
}

type xmlHistoryItem struct {
	Password         xmlValue `xml:"Password"`
	ModificationTime string   `xml:"ModificationTime,omitempty"`
}

func formatBool(b bool) string {
	if b {
		return boolTrue
	}
	return boolFalse
}

// parseBool accepts the canonical spellings plus the lowercase forms some
// hand-edited documents use.
func parseBool(s string) bool {
	switch s {
	case boolTrue, "true", "1":
		return true
	}
	return false
}
