package contracts

import "testing"

const validParsedListingsEvent = `{
	"task_id": "0b8a4f46-6f3f-4f86-9f6a-1f2d3c4b5a69",
	"source_url": "https://ecaytrade.com/real-estate",
	"listings": [
		{
			"name": "Sandscape Residences #19",
			"price": "330,050",
			"currency": "US$",
			"link": "https://ecaytrade.com/ad/1",
			"beds": "3.0",
			"mls_number": null
		}
	]
}`

func TestValidateEventAcceptsValidPayload(t *testing.T) {
	if err := ValidateEvent("ParsedListingsEvent", "1.0.0", []byte(validParsedListingsEvent)); err != nil {
		t.Errorf("valid payload rejected: %v", err)
	}
}

func TestValidateEventRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing task_id", `{"source_url": "https://ecaytrade.com/real-estate", "listings": []}`},
		{"task_id not a uuid", `{"task_id": "not-a-uuid", "source_url": "https://ecaytrade.com/real-estate", "listings": []}`},
		{"empty source_url", `{"task_id": "0b8a4f46-6f3f-4f86-9f6a-1f2d3c4b5a69", "source_url": "", "listings": []}`},
		{"listing without price", `{"task_id": "0b8a4f46-6f3f-4f86-9f6a-1f2d3c4b5a69", "source_url": "https://ecaytrade.com/real-estate", "listings": [{"name": "x", "currency": "US$", "link": "https://ecaytrade.com/ad/1"}]}`},
		{"not json", `{{{`},
	}

	for _, tt := range tests {
		if err := ValidateEvent("ParsedListingsEvent", "1.0.0", []byte(tt.body)); err == nil {
			t.Errorf("%s: expected validation error, got nil", tt.name)
		}
	}
}

func TestValidateEventUnknownSchema(t *testing.T) {
	if err := ValidateEvent("UnknownEvent", "1.0.0", []byte(`{}`)); err == nil {
		t.Error("unknown event type must be rejected")
	}
	if err := ValidateEvent("ParsedListingsEvent", "2.0.0", []byte(`{}`)); err == nil {
		t.Error("unknown event version must be rejected")
	}
}
