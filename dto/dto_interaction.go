package dto

type ReactionReq struct {
	Type   string `json:"type" validate:"required,oneof=likes dislikes saves"`
	Action string `json:"action" validate:"required,oneof=increment decrement"`
}

type ViewReq struct {
	ViewDuration   int64  `json:"viewDuration" validate:"gte=0"`
	ReferralSource string `json:"referralSource" validate:"max=100"`
}

type BatchViewItem struct {
	PostID       string `json:"postId" validate:"required,len=24,hexadecimal"`
	ViewDuration int64  `json:"viewDuration" validate:"gte=0"`
}

type BatchViewsReq struct {
	Views []BatchViewItem `json:"views" validate:"required,min=1,max=50,dive"`
}
