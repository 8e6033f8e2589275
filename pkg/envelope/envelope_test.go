package envelope

import (
	"encoding/json"
	"testing"
)

func TestDecode_Success(t *testing.T) {
	body := []byte(`{"success":true,"data":{"id":"o-1"},"requestId":"r-9"}`)
	r := Decode(200, body)
	if r.Kind != KindOK {
		t.Fatalf("expected KindOK, got %v", r.Kind)
	}
	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil {
		t.Fatalf("data unmarshal: %v", err)
	}
	if data.ID != "o-1" {
		t.Fatalf("data mutated in decode: %+v", data)
	}
	if r.RequestID != "r-9" {
		t.Fatalf("requestId not carried: %q", r.RequestID)
	}
}

func TestDecode_SuccessWithNullData(t *testing.T) {
	r := Decode(200, []byte(`{"success":true,"data":null}`))
	if r.Kind != KindOK {
		t.Fatalf("null data must still be a success, got %v", r.Kind)
	}
	if !r.IsNull() {
		t.Fatalf("expected null data branch")
	}
	if r.RequestID != "" {
		t.Fatalf("requestId should be optional")
	}
}

func TestDecode_SuccessWithoutDataField(t *testing.T) {
	r := Decode(200, []byte(`{"success":true}`))
	if r.Kind != KindTransportError {
		t.Fatalf("missing data field must not decode as success, got %v", r.Kind)
	}
}

func TestDecode_BusinessError(t *testing.T) {
	body := []byte(`{"success":false,"error":{"code":"OUT_OF_STOCK","message":"sold out","details":{"sku":"s1"}}}`)
	r := Decode(200, body)
	if r.Kind != KindBusinessError {
		t.Fatalf("expected KindBusinessError, got %v", r.Kind)
	}
	if r.Code != "OUT_OF_STOCK" || r.Message != "sold out" {
		t.Fatalf("error fields must match exactly: %q %q", r.Code, r.Message)
	}
	if len(r.Details) == 0 {
		t.Fatalf("details dropped")
	}
}

func TestDecode_BusinessErrorOnNon200(t *testing.T) {
	body := []byte(`{"success":false,"error":{"code":"FORBIDDEN","message":"feature disabled"}}`)
	r := Decode(403, body)
	if r.Kind != KindBusinessError || r.Code != "FORBIDDEN" {
		t.Fatalf("envelope on non-2xx must still decode: %+v", r)
	}
	if r.Status != 403 {
		t.Fatalf("raw status not carried: %d", r.Status)
	}
}

func TestDecode_LegacyDetailShape(t *testing.T) {
	body := []byte(`{"detail":{"code":"VALIDATION","message":"bad slot"}}`)
	r := Decode(422, body)
	if r.Kind != KindBusinessError {
		t.Fatalf("legacy shape must decode as business error, got %v", r.Kind)
	}
	if r.Code != "VALIDATION" || r.Message != "bad slot" {
		t.Fatalf("legacy fields: %q %q", r.Code, r.Message)
	}
}

func TestDecode_GarbageBody(t *testing.T) {
	r := Decode(502, []byte("<html>bad gateway</html>"))
	if r.Kind != KindTransportError {
		t.Fatalf("expected transport error, got %v", r.Kind)
	}
	if r.Status != 502 {
		t.Fatalf("status not carried: %d", r.Status)
	}
}

func TestDecode_EmptyBody(t *testing.T) {
	if r := Decode(204, nil); r.Kind != KindTransportError {
		t.Fatalf("empty body is not a valid envelope, got %v", r.Kind)
	}
}

func TestDecode_SuccessTrueOnErrorStatus(t *testing.T) {
	// A success flag outside the 2xx range is not trustworthy.
	r := Decode(500, []byte(`{"success":true,"data":{}}`))
	if r.Kind != KindTransportError {
		t.Fatalf("expected transport error, got %v", r.Kind)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Failure("UNAUTHENTICATED", "expired", "r-1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := Decode(401, raw)
	if r.Kind != KindBusinessError || r.Code != "UNAUTHENTICATED" || r.RequestID != "r-1" {
		t.Fatalf("round trip: %+v", r)
	}
}
