package models

import "time"

// OwnerSummary is the public projection of a user embedded in other views.
type OwnerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Avatar   string `json:"avatar"`
}

// Summarize projects a user into its embeddable form.
func Summarize(u User) OwnerSummary {
	return OwnerSummary{ID: u.ID, Username: u.Username, FullName: u.FullName, Avatar: u.Avatar}
}

// VideoCard is the list projection of a video.
type VideoCard struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Duration     float64       `json:"duration"`
	Views        int64         `json:"views"`
	IsPublished  bool          `json:"isPublished"`
	VideoURL     string        `json:"videoFile"`
	ThumbnailURL string        `json:"thumbnail"`
	CreatedAt    time.Time     `json:"createdAt"`
	Owner        *OwnerSummary `json:"owner,omitempty"`
}

// NewVideoCard projects a video; owner may be nil.
func NewVideoCard(v Video, owner *OwnerSummary) VideoCard {
	return VideoCard{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Duration:     v.Duration,
		Views:        v.Views,
		IsPublished:  v.IsPublished,
		VideoURL:     v.VideoFile.URL,
		ThumbnailURL: v.Thumbnail.URL,
		CreatedAt:    v.CreatedAt,
		Owner:        owner,
	}
}

// ChannelOwner is the owner block of a video detail view.
type ChannelOwner struct {
	ID               string `json:"id"`
	Username         string `json:"username"`
	Avatar           string `json:"avatar"`
	SubscribersCount int64  `json:"subscribersCount"`
	IsSubscribed     bool   `json:"isSubscribed"`
}

// VideoDetail is the single-video view.
type VideoDetail struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	VideoURL     string       `json:"videoFile"`
	ThumbnailURL string       `json:"thumbnail"`
	Duration     float64      `json:"duration"`
	Views        int64        `json:"views"`
	IsPublished  bool         `json:"isPublished"`
	CreatedAt    time.Time    `json:"createdAt"`
	LikesCount   int64        `json:"likesCount"`
	IsLiked      bool         `json:"isLiked"`
	Owner        ChannelOwner `json:"owner"`
}

// CommentView is a comment with its author and like state.
type CommentView struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`
	Owner      OwnerSummary `json:"owner"`
}

// TweetView is a tweet with its author and like state.
type TweetView struct {
	ID         string       `json:"id"`
	Content    string       `json:"content"`
	CreatedAt  time.Time    `json:"createdAt"`
	LikesCount int64        `json:"likesCount"`
	IsLiked    bool         `json:"isLiked"`
	Owner      OwnerSummary `json:"owner"`
}

// ChannelProfile is the public channel page of a user.
type ChannelProfile struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	FullName             string `json:"fullName"`
	Email                string `json:"email"`
	Avatar               string `json:"avatar"`
	CoverImage           string `json:"coverImage"`
	SubscribersCount     int64  `json:"subscribersCount"`
	ChannelsSubscribedTo int64  `json:"channelsSubscribedToCount"`
	IsSubscribed         bool   `json:"isSubscribed"`
}

// PlaylistDetail is a playlist with its published member videos.
type PlaylistDetail struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	TotalVideos int          `json:"totalVideos"`
	TotalViews  int64        `json:"totalViews"`
	Videos      []VideoCard  `json:"videos"`
	Owner       OwnerSummary `json:"owner"`
}

// PlaylistSummary is the list projection of a playlist.
type PlaylistSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TotalVideos int       `json:"totalVideos"`
	TotalViews  int64     `json:"totalViews"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChannelEdge is one side of a subscription resolved to a user, annotated
// with that user's audience and whether the subscription is mutual.
type ChannelEdge struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	FullName         string     `json:"fullName"`
	Avatar           string     `json:"avatar"`
	SubscribersCount int64      `json:"subscribersCount"`
	SubscribedBack   bool       `json:"subscribedToSubscriber"`
	LatestVideo      *VideoCard `json:"latestVideo,omitempty"`
}

// PublishState reports the publication flag after a toggle.
type PublishState struct {
	ID          string `json:"id"`
	IsPublished bool   `json:"isPublished"`
}
