package logger

// Nomes de campos usados em todo o serviço.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldUserID     = "user_id"
	FieldClienteID  = "cliente_id"
	FieldSquadID    = "squad_id"
	FieldError      = "error"
)
