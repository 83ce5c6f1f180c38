package schema_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditocr/internal/schema"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNew_RejectsDuplicateField(t *testing.T) {
	_, err := schema.New("dup", 1, schema.String("a"), schema.String("a"))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field")
}

func TestNew_RejectsEmptyRecordList(t *testing.T) {
	_, err := schema.New("bad", 1, schema.RecordList("refs"))

	assert.Error(t, err)
}

func TestNew_RejectsNoFields(t *testing.T) {
	_, err := schema.New("empty", 1)

	assert.Error(t, err)
}

func TestSchema_TemplateJSON_IsValidAndOrdered(t *testing.T) {
	tmpl := schema.CreditApplication.TemplateJSON()

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(tmpl), &parsed))
	assert.Len(t, parsed, len(schema.CreditApplication.Fields))
	assert.Equal(t, "", parsed["legal_business_name"])

	refs, ok := parsed["trade_references"].([]any)
	require.True(t, ok)
	require.Len(t, refs, 1)
	assert.Equal(t, "", refs[0].(map[string]any)["company_name"])

	assert.Less(t, strings.Index(tmpl, `"legal_business_name"`), strings.Index(tmpl, `"dba_name"`))
	assert.Less(t, strings.Index(tmpl, `"bank_phone"`), strings.Index(tmpl, `"trade_references"`))
}

func TestSchema_TemplateJSON_SingleField(t *testing.T) {
	assert.Equal(t, "{\n  \"legal_business_name\": \"\"\n}", schema.LegalBusinessName.TemplateJSON())
}

func TestSchema_Validate(t *testing.T) {
	s := schema.CreditApplication

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"required only", `{"legal_business_name":"Acme"}`, false},
		{"extra keys allowed", `{"legal_business_name":"Acme","notes":"x"}`, false},
		{"with references", `{"legal_business_name":"Acme","trade_references":[{"company_name":"Beta"}]}`, false},
		{"missing required", `{"dba_name":"Acme"}`, true},
		{"not an object", `["Acme"]`, true},
		{"string is array", `{"legal_business_name":["Acme"]}`, true},
		{"string is number", `{"legal_business_name":"Acme","zip_code":12345}`, true},
		{"string is null", `{"legal_business_name":null}`, true},
		{"references not array", `{"legal_business_name":"Acme","trade_references":"none"}`, true},
		{"reference field not string", `{"legal_business_name":"Acme","trade_references":[{"phone":5551234}]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(decode(t, tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchema_Backfill(t *testing.T) {
	obj := decode(t, `{"legal_business_name":"Acme","unknown":"drop me","trade_references":[{"company_name":"Beta"}]}`).(map[string]any)

	out := schema.CreditApplication.Backfill(obj)

	assert.Len(t, out, len(schema.CreditApplication.Fields))
	assert.Equal(t, "Acme", out["legal_business_name"])
	assert.Equal(t, "", out["dba_name"])
	assert.NotContains(t, out, "unknown")

	refs := out["trade_references"].([]any)
	require.Len(t, refs, 1)
	ref := refs[0].(map[string]any)
	assert.Equal(t, "Beta", ref["company_name"])
	assert.Equal(t, "", ref["phone"])
}

func TestSchema_Empty(t *testing.T) {
	out := schema.CreditApplication.Empty()

	assert.Equal(t, "", out["legal_business_name"])
	assert.Equal(t, []any{}, out["trade_references"])
}

func TestSchema_RequiredFields(t *testing.T) {
	assert.Equal(t, []string{"legal_business_name"}, schema.CreditApplication.RequiredFields())
	assert.Equal(t, "credit_application@v2", schema.CreditApplication.ID())
}

func TestRegistry_LookupBuiltins(t *testing.T) {
	s, err := schema.Lookup(schema.NameLegalBusinessName)
	require.NoError(t, err)
	assert.Same(t, schema.LegalBusinessName, s)

	assert.Contains(t, schema.Names(), schema.NameCreditApplication)
}

func TestRegistry_UnknownSchema(t *testing.T) {
	s, err := schema.Lookup("nonexistent-schema")

	assert.Nil(t, s)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extraction schema")
}

func TestRegistry_Register(t *testing.T) {
	custom := schema.MustNew("test_custom", 7, schema.RequiredString("name"))
	schema.Register(custom)

	s, err := schema.Lookup("test_custom")
	require.NoError(t, err)
	assert.Equal(t, 7, s.Version)
}
