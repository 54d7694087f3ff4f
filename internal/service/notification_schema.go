package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Notification types.
const (
	NotificationConnectionRequest  = "connection_request"
	NotificationConnectionAccepted = "connection_accepted"
	NotificationEventReminder      = "event_reminder"
	NotificationEventUpdate        = "event_update"
	NotificationJobStatusUpdate    = "job_status_update"
	NotificationJobPosted          = "job_posted"
	NotificationMessage            = "message"
	NotificationForumReply         = "forum_reply"
	NotificationSurveyInvite       = "survey_invite"
	NotificationSystem             = "system"
)

const idSchema = `{"oneOf": [{"type": "integer", "minimum": 1}, {"type": "string", "minLength": 1}]}`

// requiredIDSchema accepts the identifier under its snake_case or camelCase key.
func requiredIDSchema(key string) string {
	camel := camelKey(key)
	return fmt.Sprintf(`{
		"type": "object",
		"anyOf": [{"required": [%q]}, {"required": [%q]}],
		"properties": {%q: %s, %q: %s}
	}`, key, camel, key, idSchema, camel, idSchema)
}

// notificationDataSchemas lists the data payload contract per notification type.
var notificationDataSchemas = map[string]string{
	NotificationConnectionRequest:  `{"type": "object"}`,
	NotificationConnectionAccepted: `{"type": "object"}`,
	NotificationEventReminder:      requiredIDSchema("event_id"),
	NotificationEventUpdate:        requiredIDSchema("event_id"),
	NotificationJobStatusUpdate:    requiredIDSchema("job_id"),
	NotificationJobPosted:          requiredIDSchema("job_id"),
	NotificationMessage:            requiredIDSchema("chat_id"),
	NotificationForumReply:         requiredIDSchema("thread_id"),
	NotificationSurveyInvite:       requiredIDSchema("survey_id"),
	NotificationSystem:             `{"type": "object"}`,
}

var (
	compileSchemasOnce sync.Once
	compiledSchemas    map[string]*jsonschema.Schema
	compileSchemasErr  error
)

func notificationSchemas() (map[string]*jsonschema.Schema, error) {
	compileSchemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiled := make(map[string]*jsonschema.Schema, len(notificationDataSchemas))
		for notificationType, raw := range notificationDataSchemas {
			url := fmt.Sprintf("mem://notifications/%s.json", notificationType)
			if err := compiler.AddResource(url, bytes.NewReader([]byte(raw))); err != nil {
				compileSchemasErr = err
				return
			}
			schema, err := compiler.Compile(url)
			if err != nil {
				compileSchemasErr = err
				return
			}
			compiled[notificationType] = schema
		}
		compiledSchemas = compiled
	})
	return compiledSchemas, compileSchemasErr
}

// validateNotificationData checks data against the schema registered for notificationType.
func validateNotificationData(notificationType string, data map[string]interface{}) error {
	schemas, err := notificationSchemas()
	if err != nil {
		return err
	}
	schema, ok := schemas[notificationType]
	if !ok {
		return fmt.Errorf("unknown notification type %q", notificationType)
	}

	if data == nil {
		data = map[string]interface{}{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var doc interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}
