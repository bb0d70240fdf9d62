// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 聊天会话相关的业务错误。
var (
	// ErrNotAParticipant 表示用户尝试加入一个自己不是参与者的会话。
	ErrNotAParticipant = errors.New("user is not a participant of this conversation")
	// ErrNotJoined 表示在没有加入任何房间的情况下发送消息。
	ErrNotJoined = errors.New("session has not joined this conversation")
	// ErrEmptyContent 表示消息内容为空或仅包含空白字符。
	ErrEmptyContent = errors.New("message content is empty")
)

// 账号与资料相关的业务错误。
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrGoogleAccount 表示该账号通过 Google 登录注册，不能使用密码登录。
	ErrGoogleAccount  = errors.New("account uses Google sign-in")
	ErrInvalidRole    = errors.New("role must be student or alumni")
	ErrAlreadyExists  = errors.New("record already exists")
	ErrNotOwner       = errors.New("operation allowed only for the owner")
	ErrNotRecipient   = errors.New("only the recipient can answer a connection request")
	ErrAlreadyDecided = errors.New("connection request has already been answered")
	ErrSelfConnection = errors.New("cannot send a connection request to yourself")
)
