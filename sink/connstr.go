package sink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ConnectionString 是解析后的 Event Hubs 连接串
//
//	Endpoint=sb://<ns>.servicebus.windows.net/;SharedAccessKeyName=<n>;SharedAccessKey=<k>[;EntityPath=<hub>]
type ConnectionString struct {
	Endpoint              string
	Host                  string // 命名空间主机名
	SharedAccessKeyName   string
	SharedAccessKey       string
	SharedAccessSignature string
	EntityPath            string
}

// ParseConnectionString 解析连接串，键名大小写不敏感
func ParseConnectionString(s string) (ConnectionString, error) {
	var cs ConnectionString
	if strings.TrimSpace(s) == "" {
		return cs, errors.New("connection string is empty")
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return cs, fmt.Errorf("malformed connection string segment %q", key)
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint":
			cs.Endpoint = value
		case "sharedaccesskeyname":
			cs.SharedAccessKeyName = value
		case "sharedaccesskey":
			cs.SharedAccessKey = value
		case "sharedaccesssignature":
			cs.SharedAccessSignature = value
		case "entitypath":
			cs.EntityPath = value
		}
	}

	if cs.Endpoint == "" {
		return cs, errors.New("connection string has no Endpoint")
	}
	u, err := url.Parse(cs.Endpoint)
	if err != nil || u.Host == "" {
		return cs, fmt.Errorf("invalid Endpoint %q", cs.Endpoint)
	}
	cs.Host = u.Hostname()

	if cs.SharedAccessSignature == "" && (cs.SharedAccessKeyName == "" || cs.SharedAccessKey == "") {
		return cs, errors.New("connection string needs SharedAccessKeyName and SharedAccessKey, or SharedAccessSignature")
	}
	return cs, nil
}

// EventHub 返回目标 Event Hub，EntityPath 与 name 同时存在时必须一致
func (cs ConnectionString) EventHub(name string) (string, error) {
	switch {
	case cs.EntityPath == "" && name == "":
		return "", ErrNoEventHub
	case cs.EntityPath == "":
		return name, nil
	case name == "" || name == cs.EntityPath:
		return cs.EntityPath, nil
	default:
		return "", fmt.Errorf("%w: %s != %s", ErrEntityMismatch, name, cs.EntityPath)
	}
}
