package response

// ErrCode is a typed error code enum for consistent API error identification.
// The same codes are produced by the remote exam API and by the local agent.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam-specific (remote API) ────────────────────────────────────
	ErrExamNotOpen      ErrCode = "EXAM_NOT_OPEN"
	ErrExamClosed       ErrCode = "EXAM_CLOSED"
	ErrAlreadyAttempted ErrCode = "ALREADY_ATTEMPTED"

	// ─── Attempt session (local agent) ─────────────────────────────────
	ErrSessionNotHydrated ErrCode = "SESSION_NOT_HYDRATED"
	ErrSessionLoad        ErrCode = "SESSION_LOAD_FAILED"
	ErrStartFailed        ErrCode = "ATTEMPT_START_FAILED"
	ErrInvalidState       ErrCode = "INVALID_SESSION_STATE"
	ErrSubmitFailed       ErrCode = "SUBMIT_FAILED"
	ErrUnknownQuestion    ErrCode = "UNKNOWN_QUESTION"
	ErrInvalidOption      ErrCode = "INVALID_OPTION"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."

	// ─── Exam-specific (remote API) ────────────────────────────────────
	case ErrExamNotOpen:
		return "Ujian ini belum dibuka."
	case ErrExamClosed:
		return "Ujian ini sudah ditutup."
	case ErrAlreadyAttempted:
		return "Anda sudah memulai ujian ini."

	// ─── Attempt session (local agent) ─────────────────────────────────
	case ErrSessionNotHydrated:
		return "Sesi ujian belum dimuat."
	case ErrSessionLoad:
		return "Ujian tidak dapat dibuka."
	case ErrStartFailed:
		return "Ujian tidak dapat dimulai. Silakan coba lagi."
	case ErrInvalidState:
		return "Tindakan ini tidak tersedia pada status ujian saat ini."
	case ErrSubmitFailed:
		return "Pengumpulan jawaban gagal. Jawaban Anda tetap tersimpan, silakan coba lagi."
	case ErrUnknownQuestion:
		return "Soal tidak ditemukan pada ujian ini."
	case ErrInvalidOption:
		return "Pilihan jawaban tidak valid."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
