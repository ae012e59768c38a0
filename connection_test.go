package ballista

import (
	"encoding/json"
	"testing"
)

func TestConnectionUnmarshalDefaultsVerifyTrue(t *testing.T) {
	var c Connection
	if err := json.Unmarshal([]byte(`{"id":"x","address":"https://h"}`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !c.Verify {
		t.Error("Verify should default to true when the wire object omits it")
	}
}

func TestConnectionUnmarshalHonorsExplicitFalse(t *testing.T) {
	var c Connection
	if err := json.Unmarshal([]byte(`{"id":"x","verify":false}`), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if c.Verify {
		t.Error("Verify should stay false when the wire object says so explicitly")
	}
}

func TestConnectionRoundTripsWireFieldNames(t *testing.T) {
	c := Connection{
		ID:       "id1",
		Name:     "Prod",
		Address:  "https://h:8443",
		HeapSize: "512m",
		Icon:     "icon.png",
		JavaHome: "/opt/jdk",
		Username: "alice",
		Password: "s3cret",
		Verify:   true,
	}
	buf, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "name", "address", "heapSize", "icon", "javaHome", "username", "password", "verify"} {
		if _, ok := m[key]; !ok {
			t.Errorf("marshaled Connection missing wire key %q", key)
		}
	}
}
