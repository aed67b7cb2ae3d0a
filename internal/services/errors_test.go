package services

import (
	"encoding/json"
	"testing"
)

func TestServiceError(t *testing.T) {
	err := NewServiceError(CodeJobNotFound, "job abc not found")

	if err.Error() != "job abc not found" {
		t.Errorf("Expected message, got '%s'", err.Error())
	}
	if err.Details != nil {
		t.Errorf("Expected nil details, got %v", err.Details)
	}

	var _ error = err
}

func TestServiceError_JSON(t *testing.T) {
	err := NewServiceErrorWithDetails(CodeTooLarge, "too many periods", map[string]interface{}{
		"periods": 5000,
		"limit":   50,
	})

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("Marshal failed: %v", marshalErr)
	}

	var decoded map[string]interface{}
	if e := json.Unmarshal(data, &decoded); e != nil {
		t.Fatalf("Unmarshal failed: %v", e)
	}
	if decoded["code"] != CodeTooLarge {
		t.Errorf("Expected code %s, got %v", CodeTooLarge, decoded["code"])
	}
	details, ok := decoded["details"].(map[string]interface{})
	if !ok || details["limit"] != float64(50) {
		t.Errorf("Expected details with limit 50, got %v", decoded["details"])
	}
}

func TestInvalid(t *testing.T) {
	err := invalid("period %v is not positive", -1.0)
	if err.Code != CodeInvalidRequest || err.Message != "period -1 is not positive" {
		t.Errorf("unexpected error %+v", err)
	}
}
