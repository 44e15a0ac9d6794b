package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the actor lacks the required capability.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists indicates a uniqueness violation, usually a slug or
	// email collision.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidTransition indicates an operation attempted against an entity
	// already in a state where that operation is meaningless.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrWindowExpired indicates a restore attempted after the trash window elapsed.
	ErrWindowExpired = errors.New("restore window expired")
	// ErrMissingScheduleDate indicates a scheduling transition without a timestamp.
	ErrMissingScheduleDate = errors.New("missing schedule date")
	// ErrUnknownContentType indicates a project type with no production pipeline.
	ErrUnknownContentType = errors.New("unknown content type")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an internal error to a message safe to expose to
// dashboard clients. Unknown errors collapse into a generic message.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Registro não encontrado."
	case errors.Is(err, ErrForbidden):
		return "Você não tem permissão para esta ação."
	case errors.Is(err, ErrAlreadyExists):
		return "Já existe um registro com este identificador."
	case errors.Is(err, ErrInvalidTransition):
		return "Esta ação não é válida para o estado atual do registro."
	case errors.Is(err, ErrWindowExpired):
		return "O prazo de restauração expirou."
	case errors.Is(err, ErrMissingScheduleDate):
		return "Informe uma data de publicação para agendar."
	case errors.Is(err, ErrUnknownContentType):
		return "Tipo de projeto desconhecido."
	case errors.Is(err, ErrInvalidCredentials):
		return "E-mail ou senha inválidos."
	default:
		return "Algo deu errado. Tente novamente."
	}
}
