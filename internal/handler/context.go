package handler

type ContextKey string

var (
	RoleCtxKey     ContextKey = "role"
	SubCtxKey      ContextKey = "sub"
	MyInfoCtx      ContextKey = "myInfo"
	AdminInfoCtx   ContextKey = "adminInfo"
	StudentInfoCtx ContextKey = "studentInfo"
)
