package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConnStr = "Endpoint=sb://demo-ns.servicebus.windows.net/;SharedAccessKeyName=send;SharedAccessKey=c2VjcmV0PQ=="

func TestParseConnectionString(t *testing.T) {
	cs, err := ParseConnectionString(testConnStr + ";EntityPath=logs")
	require.NoError(t, err)

	assert.Equal(t, "sb://demo-ns.servicebus.windows.net/", cs.Endpoint)
	assert.Equal(t, "demo-ns.servicebus.windows.net", cs.Host)
	assert.Equal(t, "send", cs.SharedAccessKeyName)
	assert.Equal(t, "c2VjcmV0PQ==", cs.SharedAccessKey, "值中的 = 需要保留")
	assert.Equal(t, "logs", cs.EntityPath)
}

func TestParseConnectionStringCaseInsensitive(t *testing.T) {
	cs, err := ParseConnectionString("endpoint=sb://x.servicebus.windows.net/; sharedaccesssignature=SharedAccessSignature sr=x&sig=y")
	require.NoError(t, err)
	assert.Equal(t, "x.servicebus.windows.net", cs.Host)
	assert.Equal(t, "SharedAccessSignature sr=x&sig=y", cs.SharedAccessSignature)
}

func TestParseConnectionStringErrors(t *testing.T) {
	tests := map[string]string{
		"Empty":         "  ",
		"NoEndpoint":    "SharedAccessKeyName=a;SharedAccessKey=b",
		"BadEndpoint":   "Endpoint=not a url;SharedAccessKeyName=a;SharedAccessKey=b",
		"NoCredentials": "Endpoint=sb://x.servicebus.windows.net/",
		"KeyNameOnly":   "Endpoint=sb://x.servicebus.windows.net/;SharedAccessKeyName=a",
		"Malformed":     "Endpoint=sb://x.servicebus.windows.net/;garbage",
	}

	for name, s := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConnectionString(s)
			assert.Error(t, err)
		})
	}
}

func TestConnectionStringEventHub(t *testing.T) {
	tests := map[string]struct {
		entityPath string
		name       string
		want       string
		err        error
	}{
		"NameOnly":      {name: "logs", want: "logs"},
		"EntityOnly":    {entityPath: "logs", want: "logs"},
		"Both/Match":    {entityPath: "logs", name: "logs", want: "logs"},
		"Both/Mismatch": {entityPath: "logs", name: "audit", err: ErrEntityMismatch},
		"Neither":       {err: ErrNoEventHub},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ConnectionString{EntityPath: tt.entityPath}.EventHub(tt.name)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
