package handler

// updateProfileRequest is a partial update; omitted fields are left as they are.
type updateProfileRequest struct {
	Fullname       *string `json:"fullname"`
	Username       *string `json:"username"`
	Email          *string `json:"email"           validate:"omitempty,email"`
	Phone          *string `json:"notelp"`
	NRP            *string `json:"nrp"`
	Institution    *string `json:"institution"`
	Biography      *string `json:"biografi"`
	ProfilePicture *string `json:"profile_picture"`
	Password       *string `json:"password"`
}

type statusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}
