package service

import (
	"context"
	"sort"
	"time"

	"alumniverse/internal/model"
	"alumniverse/internal/repository"
)

// ConversationPreview 是侧边栏中的一项：会话、对端用户与最近一条消息的摘要。
type ConversationPreview struct {
	ConversationID     uint       `json:"conversationId"`
	Participant        *UserBrief `json:"participant"`
	LastMessageSummary string     `json:"lastMessageSummary"`
	LastMessageAt      *time.Time `json:"lastMessageAt"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// UserBrief 是嵌入在其他响应里的用户摘要信息。
type UserBrief struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture"`
}

// ConversationService 定义了会话侧边栏与历史拉取的业务接口。
type ConversationService interface {
	// ListForUser 返回用户的会话列表，按最近活跃时间降序（侧边栏顺序）。
	ListForUser(ctx context.Context, userID uint) ([]ConversationPreview, error)
	// History 返回会话的完整消息历史，按时间升序；
	// 调用方不是会话参与者时返回 ErrNotAParticipant。
	History(ctx context.Context, conversationID, userID uint) ([]model.Message, error)
}

type conversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(convRepo repository.ConversationRepository, userRepo repository.UserRepository) ConversationService {
	return &conversationService{convRepo: convRepo, userRepo: userRepo}
}

// ListForUser 组装侧边栏：仓库返回的会话集合是无序的，这里统一
// 按最近一条消息的时间排序，没有消息的会话按创建时间排在后面。
func (s *conversationService) ListForUser(ctx context.Context, userID uint) ([]ConversationPreview, error) {
	convs, err := s.convRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 批量查出所有对端用户，避免逐条查询
	otherIDs := make([]uint, 0, len(convs))
	for i := range convs {
		otherIDs = append(otherIDs, convs[i].OtherParticipant(userID))
	}
	others, err := s.userRepo.FindByIDs(otherIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.User, len(others))
	for i := range others {
		byID[others[i].ID] = &others[i]
	}

	previews := make([]ConversationPreview, 0, len(convs))
	for i := range convs {
		conv := &convs[i]
		preview := ConversationPreview{
			ConversationID:     conv.ID,
			LastMessageSummary: conv.LastMessageSummary,
			LastMessageAt:      conv.LastMessageAt,
			CreatedAt:          conv.CreatedAt,
		}
		if other := byID[conv.OtherParticipant(userID)]; other != nil {
			preview.Participant = &UserBrief{
				ID:             other.ID,
				Name:           other.Name,
				Role:           other.Role,
				ProfilePicture: other.ProfilePicture,
			}
		}
		previews = append(previews, preview)
	}

	sort.SliceStable(previews, func(i, j int) bool {
		return lastActivity(&previews[i]).After(lastActivity(&previews[j]))
	})
	return previews, nil
}

// lastActivity 返回会话用于排序的活跃时间。
func lastActivity(p *ConversationPreview) time.Time {
	if p.LastMessageAt != nil {
		return *p.LastMessageAt
	}
	return p.CreatedAt
}

// History 校验参与者资格后返回完整消息历史。
func (s *conversationService) History(ctx context.Context, conversationID, userID uint) ([]model.Message, error) {
	conv, err := s.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(userID) {
		return nil, ErrNotAParticipant
	}
	return s.convRepo.ListMessages(ctx, conversationID)
}
