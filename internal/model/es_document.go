package model

// EsUserDocument 是索引到 Elasticsearch 中的用户文档，用于站内人脉搜索。
// 在用户注册和资料更新时写入，DocumentID 使用用户 ID。
type EsUserDocument struct {
	UserID         uint   `json:"user_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	CollegeName    string `json:"college_name"`
	CurrentCompany string `json:"current_company"`
	JobTitle       string `json:"job_title"`
	Major          string `json:"major"`
	ProfilePicture string `json:"profile_picture"`
	IsOnboarded    bool   `json:"is_onboarded"`
}
