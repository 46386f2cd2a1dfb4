package logger

import "time"

// Field keys shared across packages so log queries stay stable.
const (
	FieldComponent = "component"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldRequestID = "request_id"
	FieldRunID     = "run_id"
	FieldBackend   = "backend"
	FieldChunk     = "chunk"
	FieldPath      = "path"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields pairs up alternating keys and values; a non-string key drops its pair.
//
//	log.Info("transcript saved", logger.Fields("path", p, "chunks", n))
func Fields(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 1; i < len(kv); i += 2 {
		if k, ok := kv[i-1].(string); ok {
			m[k] = kv[i]
		}
	}
	return m
}

func ErrorFields(op string, err error) map[string]interface{} {
	return Fields(FieldOperation, op, FieldError, err.Error())
}

func DurationFields(op string, d time.Duration) map[string]interface{} {
	return Fields(FieldOperation, op, FieldDuration, d.Milliseconds())
}

// MergeWithError sets the error key on fields, allocating when nil.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields[FieldError] = err.Error()
	return fields
}
