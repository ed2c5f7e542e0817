package models

type User struct {
	ID            string  `json:"id" db:"id"`
	Firstname     string  `json:"firstname" db:"firstname"`
	Lastname      string  `json:"lastname" db:"lastname"`
	Email         string  `json:"email" db:"email"`
	PasswordHash  string  `json:"-" db:"password_hash"`
	StatusID      int     `json:"statusId" db:"status_id"`
	Verified      bool    `json:"verified" db:"verified"`
	Approved      bool    `json:"approved" db:"approved"`
	Admin         bool    `json:"admin" db:"admin"`
	ImageID       *string `json:"imageId" db:"image_id"`
	JoinTime      int64   `json:"joinTime" db:"join_time"`
	LastLoginTime *int64  `json:"lastLoginTime" db:"last_login_time"`
	LastPostTime  *int64  `json:"lastPostTime" db:"last_post_time"`
}

// UnapprovedUser is a row of the registration moderation queue.
type UnapprovedUser struct {
	ID        string `json:"id" db:"id"`
	Firstname string `json:"firstname" db:"firstname"`
	Lastname  string `json:"lastname" db:"lastname"`
	Email     string `json:"email" db:"email"`
	Status    string `json:"status" db:"status"`
	JoinTime  int64  `json:"joinTime" db:"join_time"`
}

type Post struct {
	ID                  string  `json:"id" db:"id"`
	UserID              string  `json:"userId" db:"user_id"`
	Content             string  `json:"content" db:"content"`
	Location            string  `json:"location" db:"location"`
	City                string  `json:"city" db:"city"`
	Country             string  `json:"country" db:"country"`
	LocationTypeID      int     `json:"locationTypeId" db:"location_type_id"`
	ProgramID           int     `json:"programId" db:"program_id"`
	RatingID            string  `json:"ratingId" db:"rating_id"`
	ThreeWords          string  `json:"threeWords" db:"three_words"`
	CurrentUserStatusID int     `json:"currentUserStatusId" db:"current_user_status_id"`
	Address             *string `json:"address" db:"address"`
	Phone               *string `json:"phone" db:"phone"`
	Website             *string `json:"website" db:"website"`
	Approved            bool    `json:"approved" db:"approved"`
	CreateTime          int64   `json:"createTime" db:"create_time"`
	EditTime            *int64  `json:"editTime" db:"edit_time"`
}

// PostEdit holds the fields of a sparse post update; nil fields are left unchanged.
type PostEdit struct {
	Content        *string `json:"content"`
	Location       *string `json:"location"`
	City           *string `json:"city"`
	Country        *string `json:"country"`
	LocationTypeID *int    `json:"locationTypeId"`
	ProgramID      *int    `json:"programId"`
	ThreeWords     *string `json:"threeWords"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	Website        *string `json:"website"`
}

// UnapprovedPost is a row of the post moderation queue.
type UnapprovedPost struct {
	PostID       string `json:"postId" db:"post_id"`
	Firstname    string `json:"firstname" db:"firstname"`
	Lastname     string `json:"lastname" db:"lastname"`
	Content      string `json:"content" db:"content"`
	Location     string `json:"location" db:"location"`
	City         string `json:"city" db:"city"`
	Country      string `json:"country" db:"country"`
	LocationType string `json:"locationType" db:"location_type"`
	Program      string `json:"program" db:"program"`
	ThreeWords   string `json:"threeWords" db:"three_words"`
	CreateTime   int64  `json:"createTime" db:"create_time"`
}

// PostSummary is the search result projection.
type PostSummary struct {
	ID           string `json:"id" db:"id"`
	UserID       string `json:"userId" db:"user_id"`
	Firstname    string `json:"firstname" db:"firstname"`
	Lastname     string `json:"lastname" db:"lastname"`
	Content      string `json:"content" db:"content"`
	Location     string `json:"location" db:"location"`
	City         string `json:"city" db:"city"`
	Country      string `json:"country" db:"country"`
	ThreeWords   string `json:"threeWords" db:"three_words"`
	LocationType string `json:"locationType" db:"location_type"`
	Program      string `json:"program" db:"program"`
	UserStatus   string `json:"userStatus" db:"user_status"`
	Rating       int    `json:"rating" db:"rating"`
	CreateTime   int64  `json:"createTime" db:"create_time"`
}

// Rating optional fields are nil when no score was given.
type Rating struct {
	ID            string `json:"id" db:"id"`
	General       int    `json:"general" db:"general"`
	Cost          *int   `json:"cost" db:"cost"`
	Quality       *int   `json:"quality" db:"quality"`
	Safety        *int   `json:"safety" db:"safety"`
	Cleanliness   *int   `json:"cleanliness" db:"cleanliness"`
	GuestServices *int   `json:"guestServices" db:"guest_services"`
}

// RatingInput is a partial rating; zero values mean "not rated" except General.
type RatingInput struct {
	General       int `json:"general" validate:"required,min=1,max=5"`
	Cost          int `json:"cost" validate:"min=0,max=5"`
	Quality       int `json:"quality" validate:"min=0,max=5"`
	Safety        int `json:"safety" validate:"min=0,max=5"`
	Cleanliness   int `json:"cleanliness" validate:"min=0,max=5"`
	GuestServices int `json:"guestServices" validate:"min=0,max=5"`
}

type Image struct {
	ID           string `json:"id" db:"id"`
	Data         []byte `json:"-" db:"data"`
	RegisterTime int64  `json:"registerTime" db:"register_time"`
}

type PostImage struct {
	ID      int64  `json:"id" db:"id"`
	PostID  string `json:"postId" db:"post_id"`
	ImageID string `json:"imageId" db:"image_id"`
}

type PostVote struct {
	ID         int64  `json:"id" db:"id"`
	UserID     string `json:"userId" db:"user_id"`
	PostID     string `json:"postId" db:"post_id"`
	VoteType   string `json:"voteType" db:"vote_type"`
	CreateTime int64  `json:"createTime" db:"create_time"`
}

type AdminFavorite struct {
	ID         string `json:"id" db:"id"`
	PostID     string `json:"postId" db:"post_id"`
	CreateTime int64  `json:"createTime" db:"create_time"`
}

type Session struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"userId" db:"user_id"`
	CreateTime int64  `json:"createTime" db:"create_time"`
	UpdateTime int64  `json:"updateTime" db:"update_time"`
}

type Verify struct {
	ID         string `json:"id" db:"id"`
	Email      string `json:"email" db:"email"`
	CreateTime int64  `json:"createTime" db:"create_time"`
}

type PasswordReset struct {
	ID         string `json:"id" db:"id"`
	Email      string `json:"email" db:"email"`
	CreateTime int64  `json:"createTime" db:"create_time"`
}

type EmailChange struct {
	ID         string `json:"id" db:"id"`
	UserID     string `json:"userId" db:"user_id"`
	NewEmail   string `json:"newEmail" db:"new_email"`
	CreateTime int64  `json:"createTime" db:"create_time"`
}

type Suspension struct {
	ID             string `json:"id" db:"id"`
	UserID         string `json:"userId" db:"user_id"`
	SuspendedUntil int64  `json:"suspendedUntil" db:"suspended_until"`
	CreateTime     int64  `json:"createTime" db:"create_time"`
}

// SuspendedUser joins a suspension with the suspended account.
type SuspendedUser struct {
	SuspensionID   string `json:"suspensionId" db:"suspension_id"`
	UserID         string `json:"userId" db:"user_id"`
	Firstname      string `json:"firstname" db:"firstname"`
	Lastname       string `json:"lastname" db:"lastname"`
	Email          string `json:"email" db:"email"`
	SuspendedUntil int64  `json:"suspendedUntil" db:"suspended_until"`
	CreateTime     int64  `json:"createTime" db:"create_time"`
}

type UserStatusChange struct {
	ID          string `json:"id" db:"id"`
	UserID      string `json:"userId" db:"user_id"`
	NewStatusID int    `json:"newStatusId" db:"new_status_id"`
	CreateTime  int64  `json:"createTime" db:"create_time"`
}

// StatusChangeRequest is a pending request joined with the account and both status names.
type StatusChangeRequest struct {
	ID            string `json:"id" db:"id"`
	UserID        string `json:"userId" db:"user_id"`
	Firstname     string `json:"firstname" db:"firstname"`
	Lastname      string `json:"lastname" db:"lastname"`
	Email         string `json:"email" db:"email"`
	CurrentStatus string `json:"currentStatus" db:"current_status"`
	NewStatus     string `json:"newStatus" db:"new_status"`
	CreateTime    int64  `json:"createTime" db:"create_time"`
}

// Lookup is a row of one of the static reference tables.
type Lookup struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Meta struct {
	Name  string `json:"name" db:"name"`
	Value string `json:"value" db:"value"`
}

// AdminUser is a row of the admin user listing.
type AdminUser struct {
	ID            string `json:"id" db:"id"`
	Firstname     string `json:"firstname" db:"firstname"`
	Lastname      string `json:"lastname" db:"lastname"`
	Email         string `json:"email" db:"email"`
	Status        string `json:"status" db:"status"`
	Verified      bool   `json:"verified" db:"verified"`
	Approved      bool   `json:"approved" db:"approved"`
	Admin         bool   `json:"admin" db:"admin"`
	JoinTime      int64  `json:"joinTime" db:"join_time"`
	LastLoginTime *int64 `json:"lastLoginTime" db:"last_login_time"`
	LastPostTime  *int64 `json:"lastPostTime" db:"last_post_time"`
}

// AdminPost is a row of the admin post listing; AdminFavorite is the favorite id when featured.
type AdminPost struct {
	ID            string  `json:"id" db:"id"`
	Location      string  `json:"location" db:"location"`
	PostUser      string  `json:"postUser" db:"post_user"`
	Program       string  `json:"program" db:"program"`
	Rating        int     `json:"rating" db:"rating"`
	Approved      bool    `json:"approved" db:"approved"`
	CreateTime    int64   `json:"createTime" db:"create_time"`
	AdminFavorite *string `json:"adminFavorite" db:"admin_favorite"`
}

// Stats holds the row counts shown on the admin dashboard.
type Stats struct {
	Users           int64 `json:"users"`
	UnapprovedUsers int64 `json:"unapprovedUsers"`
	Posts           int64 `json:"posts"`
	UnapprovedPosts int64 `json:"unapprovedPosts"`
	Favorites       int64 `json:"favorites"`
	Suspended       int64 `json:"suspended"`
	StatusRequests  int64 `json:"statusRequests"`
	ActiveSessions  int64 `json:"activeSessions"`
}
