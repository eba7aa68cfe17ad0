package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHub() *EventHubConfig {
	return &EventHubConfig{
		Identity: IdentityConfig{Trigram: "ABC", Application: "Demo", Layer: "API"},
	}
}

func TestEventHubValidateDefaults(t *testing.T) {
	ec := validHub()
	require.NoError(t, ec.Validate())
	assert.Equal(t, AMQP, ec.Transport)
	assert.Equal(t, DefaultSendTimeout, ec.SendTimeout)
	assert.Equal(t, time.Local, ec.Location())
}

func TestEventHubValidateErrors(t *testing.T) {
	tests := map[string]func(*EventHubConfig){
		"BadTransport":    func(ec *EventHubConfig) { ec.Transport = "websocket" },
		"NegativeTimeout": func(ec *EventHubConfig) { ec.SendTimeout = -time.Second },
		"BadTimeZone":     func(ec *EventHubConfig) { ec.TimeZone = "Mars/Olympus" },
		"BlankTrigram":    func(ec *EventHubConfig) { ec.Identity.Trigram = "  " },
		"NoLayer":         func(ec *EventHubConfig) { ec.Identity.Layer = "" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			ec := validHub()
			mutate(ec)
			assert.Error(t, ec.Validate())
		})
	}
}

func TestEventHubConnectionNotRequired(t *testing.T) {
	// 缺少连接串由输出降级处理，不是配置错误
	ec := validHub()
	ec.Transport = Kafka
	ec.TimeZone = "UTC"
	require.NoError(t, ec.Validate())
	assert.Equal(t, time.UTC, ec.Location())
}

func TestIdentityValidateListsMissing(t *testing.T) {
	err := (&IdentityConfig{Application: "Demo"}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applicationTrigram")
	assert.Contains(t, err.Error(), "applicationLayer")
	assert.NotContains(t, err.Error(), "applicationName")
}

func TestOutputValidate(t *testing.T) {
	tests := map[string]struct {
		out     OutputConfig
		wantErr bool
	}{
		"Console":         {out: OutputConfig{Type: Stdout, Level: InfoLevel}},
		"EventHub":        {out: OutputConfig{Type: EventHub, Level: DebugLevel, EventHub: validHub()}},
		"EventHubMissing": {out: OutputConfig{Type: EventHub, Level: DebugLevel}, wantErr: true},
		"FileRelative":    {out: OutputConfig{Type: File, Level: InfoLevel, File: &FileConfig{Path: "app.log"}}, wantErr: true},
		"BadLevel":        {out: OutputConfig{Type: Stdout, Level: "verbose"}, wantErr: true},
		"BadType":         {out: OutputConfig{Type: "db", Level: InfoLevel}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.out.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseValidate(t *testing.T) {
	dc := DatabaseConfig{DriverName: "sqlite", DataSourceName: "failures.db"}
	require.NoError(t, dc.Validate())
	assert.Equal(t, DefaultFailureTable, dc.TableName)
	assert.Equal(t, DefaultBatchSize, dc.BatchSize)

	assert.Error(t, (&DatabaseConfig{DriverName: "mysql"}).Validate())
	assert.Error(t, (&DatabaseConfig{DriverName: "mongo", DataSourceName: "x"}).Validate())
}

func TestLoggerValidateAppliesInPlace(t *testing.T) {
	lc := LoggerConfig{Outputs: []OutputConfig{{Type: EventHub, Level: InfoLevel, EventHub: validHub()}}}
	require.NoError(t, lc.Validate())
	assert.Equal(t, AMQP, lc.Outputs[0].EventHub.Transport)

	lc.Sampling = SamplingConfig{Enabled: true}
	assert.Error(t, lc.Validate())
}

func TestEnvApplyTo(t *testing.T) {
	t.Setenv("EH_CONNECTION_STRING", "Endpoint=sb://env/;SharedAccessKeyName=a;SharedAccessKey=b")
	t.Setenv("EH_NAME", "env-hub")
	t.Setenv("EH_TRANSPORT_TYPE", "kafka")
	t.Setenv("EH_PARTITION_KEY", "")

	env, err := FromEnv()
	require.NoError(t, err)

	ec := &EventHubConfig{Name: "explicit"}
	env.ApplyTo(ec)
	assert.Equal(t, "explicit", ec.Name, "显式配置优先")
	assert.Equal(t, "Endpoint=sb://env/;SharedAccessKeyName=a;SharedAccessKey=b", ec.ConnectionString)
	assert.Equal(t, Kafka, ec.Transport)
	assert.Empty(t, ec.PartitionKey)

	env.ApplyTo(nil)
}

func TestEnvApplyToOutputs(t *testing.T) {
	env := Env{Name: "hub"}
	lc := LoggerConfig{Outputs: []OutputConfig{
		{Type: Stdout},
		{Type: EventHub, EventHub: &EventHubConfig{}},
		{Type: EventHub},
	}}
	env.ApplyToOutputs(&lc)
	assert.Equal(t, "hub", lc.Outputs[1].EventHub.Name)
	assert.Nil(t, lc.Outputs[2].EventHub)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hublog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
serviceName: orders
sampling:
  enabled: true
  initial: 10
  thereafter: 5
  window: 1s
outputs:
  - type: eventhub
    level: debug
    enabled: true
    eventHub:
      name: logs
      transport: kafka
      sendTimeout: 2s
      timeZone: UTC
      properties:
        env: prod
      identity:
        applicationTrigram: ORD
        applicationName: Orders
        applicationLayer: API
failures:
  journal:
    driver: sqlite
    dsn: /tmp/failures.db
`), 0o644))

	lc, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, lc.Validate())

	assert.Equal(t, "orders", lc.ServiceName)
	assert.Equal(t, time.Second, lc.Sampling.Window)
	require.Len(t, lc.Outputs, 1)
	ec := lc.Outputs[0].EventHub
	require.NotNil(t, ec)
	assert.Equal(t, Kafka, ec.Transport)
	assert.Equal(t, 2*time.Second, ec.SendTimeout)
	assert.Equal(t, "ORD", ec.Identity.Trigram)
	assert.Equal(t, "Orders", ec.Identity.Application)
	assert.Equal(t, map[string]string{"env": "prod"}, ec.Properties)
	require.NotNil(t, lc.Failures.Journal)
	assert.Equal(t, "sqlite", lc.Failures.Journal.DriverName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoggerConfigClone(t *testing.T) {
	hub := validHub()
	hub.Brokers = []string{"b1:9093"}
	hub.Properties = map[string]string{"env": "prod"}
	lc := LoggerConfig{
		Outputs: []OutputConfig{
			{Type: EventHub, Level: InfoLevel, EventHub: hub},
			{Type: File, Level: InfoLevel, File: &FileConfig{Path: "/var/log/app.log"}},
		},
		Failures: FailureConfig{Journal: &DatabaseConfig{DriverName: "sqlite", DataSourceName: "f.db"}},
	}

	c := lc.Clone()
	require.NoError(t, c.Validate())
	c.Outputs[0].EventHub.Brokers[0] = "changed"
	c.Outputs[0].EventHub.Properties["env"] = "dev"
	Env{ConnectionString: "Endpoint=sb://env/"}.ApplyToOutputs(&c)

	assert.Empty(t, hub.Transport, "默认值只写入副本")
	assert.Zero(t, hub.SendTimeout)
	assert.Empty(t, hub.ConnectionString)
	assert.Equal(t, []string{"b1:9093"}, hub.Brokers)
	assert.Equal(t, "prod", hub.Properties["env"])
	assert.Zero(t, lc.Outputs[1].File.MaxSizeMB)
	assert.Empty(t, lc.Failures.Journal.TableName)

	assert.Nil(t, LoggerConfig{}.Clone().Outputs)
}
