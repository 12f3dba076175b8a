package agent

import (
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// Status describes the vault held by the agent.
type Status struct {
	Loaded      bool
	Name        string
	Fingerprint string
	Entries     int
	Groups      int
}

// EntrySummary is an entry without secrets.
type EntrySummary struct {
	UUID      string
	Title     string
	Username  string
	URL       string
	GroupUUID string
	Tags      []string
}

// EntryDetail is an entry with its password, notes and custom fields.
type EntryDetail struct {
	EntrySummary
	Password     string
	Notes        string
	CustomFields []models.CustomField
}

func statusToStruct(st Status) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"loaded":      st.Loaded,
		"name":        st.Name,
		"fingerprint": st.Fingerprint,
		"entries":     st.Entries,
		"groups":      st.Groups,
	})
}

func statusFromStruct(s *structpb.Struct) Status {
	f := s.GetFields()
	return Status{
		Loaded:      f["loaded"].GetBoolValue(),
		Name:        f["name"].GetStringValue(),
		Fingerprint: f["fingerprint"].GetStringValue(),
		Entries:     int(f["entries"].GetNumberValue()),
		Groups:      int(f["groups"].GetNumberValue()),
	}
}

func summaryFields(e *models.Entry) map[string]any {
	tags := make([]any, 0, len(e.Tags))
	for _, t := range e.Tags {
		tags = append(tags, t)
	}
	return map[string]any{
		"uuid":      e.UUID,
		"title":     e.Title,
		"username":  e.Username,
		"url":       e.URL,
		"groupUuid": e.GroupUUID,
		"tags":      tags,
	}
}

func summaryToStruct(e *models.Entry) (*structpb.Struct, error) {
	return structpb.NewStruct(summaryFields(e))
}

func detailToStruct(e *models.Entry) (*structpb.Struct, error) {
	m := summaryFields(e)
	m["password"] = e.Password
	m["notes"] = e.Notes
	fields := make([]any, 0, len(e.CustomFields))
	for _, cf := range e.CustomFields {
		fields = append(fields, map[string]any{
			"key":       cf.Key,
			"value":     cf.Value,
			"protected": cf.Protected,
		})
	}
	m["customFields"] = fields
	return structpb.NewStruct(m)
}

func summaryFromStruct(s *structpb.Struct) EntrySummary {
	f := s.GetFields()
	out := EntrySummary{
		UUID:      f["uuid"].GetStringValue(),
		Title:     f["title"].GetStringValue(),
		Username:  f["username"].GetStringValue(),
		URL:       f["url"].GetStringValue(),
		GroupUUID: f["groupUuid"].GetStringValue(),
	}
	for _, v := range f["tags"].GetListValue().GetValues() {
		out.Tags = append(out.Tags, v.GetStringValue())
	}
	return out
}

func detailFromStruct(s *structpb.Struct) EntryDetail {
	f := s.GetFields()
	out := EntryDetail{
		EntrySummary: summaryFromStruct(s),
		Password:     f["password"].GetStringValue(),
		Notes:        f["notes"].GetStringValue(),
	}
	for _, v := range f["customFields"].GetListValue().GetValues() {
		cf := v.GetStructValue().GetFields()
		out.CustomFields = append(out.CustomFields, models.CustomField{
			Key:       cf["key"].GetStringValue(),
			Value:     cf["value"].GetStringValue(),
			Protected: cf["protected"].GetBoolValue(),
		})
	}
	return out
}
