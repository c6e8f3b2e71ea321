package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrExamEmpty          ErrCode = "EXAM_EMPTY"
	ErrDataIntegrity      ErrCode = "DATA_INTEGRITY"
	ErrPersistence        ErrCode = "PERSISTENCE_ERROR"
	ErrInvalidQuestion    ErrCode = "INVALID_QUESTION"
	ErrAttemptInProgress  ErrCode = "ATTEMPT_IN_PROGRESS"
	ErrSessionNotFound    ErrCode = "SESSION_NOT_FOUND"
	ErrAttemptNotFinished ErrCode = "ATTEMPT_NOT_FINISHED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a learner-facing message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Correo o contraseña incorrectos."
	case ErrTokenRequired:
		return "Se requiere un token de autenticación."
	case ErrTokenInvalid:
		return "El token de autenticación no es válido."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "No tienes permiso para acceder a este recurso."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "La validación falló. Revisa los datos ingresados."
	case ErrInvalidID:
		return "El formato del identificador no es válido."
	case ErrInvalidPayload:
		return "El contenido de la solicitud no es válido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Recurso no encontrado."
	case ErrConflict:
		return "El recurso ya existe."

	// ─── Exam sessions ─────────────────────────────────────────────────
	case ErrExamNotFound:
		return "Ensayo no encontrado."
	case ErrExamEmpty:
		return "Este ensayo no tiene preguntas."
	case ErrDataIntegrity:
		return "No se pudieron cargar las preguntas del ensayo."
	case ErrPersistence:
		return "No se pudo iniciar el ensayo. Intenta nuevamente."
	case ErrInvalidQuestion:
		return "La pregunta no pertenece a este ensayo."
	case ErrAttemptInProgress:
		return "Ya tienes un ensayo en progreso."
	case ErrSessionNotFound:
		return "No hay una sesión activa para este intento."
	case ErrAttemptNotFinished:
		return "El intento aún no está completado."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Ocurrió un error interno del servidor."
	default:
		return "Ocurrió un error inesperado."
	}
}
