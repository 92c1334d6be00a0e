package errs

var (
	ErrArgs                = NewCodeError(1001, "bad request args")
	ErrTokenInvalid        = NewCodeError(1101, "token invalid")
	ErrTokenExpired        = NewCodeError(1102, "token expired")
	ErrUserExists          = NewCodeError(1201, "user already exists")
	ErrUserNotFound        = NewCodeError(1202, "user not found")
	ErrBadCredentials      = NewCodeError(1203, "incorrect email or password")
	ErrGroupNotFound       = NewCodeError(1301, "group not found")
	ErrNotGroupMember      = NewCodeError(1302, "not a member of this group")
	ErrGroupFull           = NewCodeError(1303, "group is full")
	ErrInviteNotFound      = NewCodeError(1401, "invitation not found")
	ErrInviteUsed          = NewCodeError(1402, "invitation already used")
	ErrInviteExpired       = NewCodeError(1403, "invitation expired")
	ErrInsufficientCredits = NewCodeError(1501, "insufficient credits")
	ErrAIDisabled          = NewCodeError(1502, "AI is not enabled for this group")
	ErrNotFound            = NewCodeError(1601, "record not found")
	ErrInternal            = NewCodeError(1999, "internal error")
)
