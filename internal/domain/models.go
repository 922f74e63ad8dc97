package domain

import "time"

type Language string

const (
	LanguageTelugu  Language = "te"
	LanguageEnglish Language = "en"
)

type PostType string

const (
	PostTypePoem  PostType = "poem"
	PostTypeStory PostType = "story"
	PostTypeEssay PostType = "essay"
)

// AccountType classifies a user by which credentials it carries.
type AccountType string

const (
	AccountLocal      AccountType = "local"      // password only
	AccountFederated  AccountType = "federated"  // firebase uid only
	AccountLinked     AccountType = "linked"     // both
	AccountIncomplete AccountType = "incomplete" // neither
)

type User struct {
	ID            string
	Email         string
	Name          string
	IsAdmin       bool
	IsVisited     bool
	Phone         string
	Country       string
	Bio           string
	GenresTouched []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type UserWithSecrets struct {
	User
	PasswordHash string
	FirebaseUID  string
}

func (u UserWithSecrets) AccountType() AccountType {
	switch {
	case u.PasswordHash != "" && u.FirebaseUID != "":
		return AccountLinked
	case u.PasswordHash != "":
		return AccountLocal
	case u.FirebaseUID != "":
		return AccountFederated
	}
	return AccountIncomplete
}

type Post struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Title       string
	Description string
	Content     string
	Language    Language
	Type        PostType
	Genres      []string
	LikeCount   int
	IsLiked     bool
	Comments    []Comment
	CreatedAt   time.Time
}

// PostSummary is the browse/profile projection: no body, no comments.
type PostSummary struct {
	ID          string
	AuthorName  string
	Title       string
	Description string
	Language    Language
	Type        PostType
	Genres      []string
	LikeCount   int
	CreatedAt   time.Time
}

type Comment struct {
	ID         string
	PostID     string
	AuthorID   string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

type VideoUpload struct {
	ID          string
	AuthorID    string
	AuthorName  string
	Title       string
	URL         string
	Description string
	CreatedAt   time.Time
}

type CompetitionEntry struct {
	ID         string
	AuthorID   string
	AuthorName string
	Roll       string
	Title      string
	Content    string
	Language   Language
	CreatedAt  time.Time
}

type Profile struct {
	User          User
	Posts         []PostSummary
	GenresTouched []string
}

type DashboardStats struct {
	Users        int
	Poems        int
	Stories      int
	Essays       int
	VideoUploads int
}

// AdminUserRow is the moderation listing: a user plus post count.
type AdminUserRow struct {
	User
	PostCount int
}
