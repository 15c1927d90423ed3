// Package models defines the documents persisted by ember.
package models

import (
	"time"

	"github.com/256dpi/fire/coal"
	"github.com/256dpi/fire/stick"
	"github.com/256dpi/xo"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	// register user indexes
	coal.AddIndex(&User{}, true, 0, "Email")
	coal.AddIndex(&User{}, false, 0, "SavedPosts")

	// register community indexes
	coal.AddIndex(&Community{}, true, 0, "Name")
	coal.AddIndex(&Community{}, false, 0, "Members")

	// register post indexes
	coal.AddIndex(&Post{}, false, 0, "Community", "-Created")
	coal.AddIndex(&Post{}, false, 0, "Author", "-Created")

	// register comment index
	coal.AddIndex(&Comment{}, false, 0, "Post", "-Created")

	// register relationship index and require edges to be unique
	coal.AddIndex(&Relationship{}, true, 0, "Follower", "Following")

	// register report index and require pairs to be unique
	coal.AddIndex(&Report{}, true, 0, "Post", "Reporter")
}

// All returns a list of all ember models.
func All() []coal.Model {
	return []coal.Model{
		&User{},
		&Community{},
		&Post{},
		&Comment{},
		&Relationship{},
		&Report{},
	}
}

// User is an account that joins communities, authors posts and engages with
// the posts of others.
type User struct {
	coal.Base `json:"-" bson:",inline" coal:"users"`

	// The display name.
	Name string `json:"name"`

	// The unique email address.
	Email string `json:"email"`

	// The URL of the avatar image.
	Avatar string `json:"avatar"`

	// The plain password. Only set until the model is validated.
	Password string `json:"password,omitempty" bson:"-"`

	// The hash of the password.
	PasswordHash []byte `json:"-" bson:"password_hash"`

	// The set of saved posts.
	SavedPosts []coal.ID `json:"saved-posts" bson:"saved_posts"`
}

// HashPassword will hash Password and set PasswordHash.
func (u *User) HashPassword() error {
	// skip if absent
	if len(u.Password) == 0 {
		return nil
	}

	// generate hash from password
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// set hash and clear password
	u.PasswordHash = hash
	u.Password = ""

	return nil
}

// ValidPassword will determine whether the specified plain text password
// matches the stored hashed password.
func (u *User) ValidPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}

// Validate implements the stick.Validatable interface.
func (u *User) Validate() error {
	// hash password if available
	err := u.HashPassword()
	if err != nil {
		return err
	}

	return stick.Validate(u, func(v *stick.Validator) {
		v.Value("Name", false, stick.IsNotZero)
		v.Value("Email", false, stick.IsNotZero, stick.IsEmail)
		v.Value("PasswordHash", false, stick.IsNotZero)
	})
}

// Community is a membership-gated space for posts. The members set grants
// both posting rights and read visibility.
type Community struct {
	coal.Base `json:"-" bson:",inline" coal:"communities"`

	// The unique name.
	Name string `json:"name"`

	// The set of members.
	Members []coal.ID `json:"members"`
}

// Validate implements the stick.Validatable interface.
func (c *Community) Validate() error {
	return stick.Validate(c, func(v *stick.Validator) {
		v.Value("Name", false, stick.IsNotZero)
	})
}

// HasMember returns whether the specified user is a member.
func (c *Community) HasMember(user coal.ID) bool {
	return stick.Contains(c.Members, user)
}

// Post is a user-authored document in a community. The body and attachment
// are immutable after creation, only the engagement sets mutate.
type Post struct {
	coal.Base `json:"-" bson:",inline" coal:"posts"`

	// The authoring user.
	Author coal.ID `json:"author" bson:"author_id"`

	// The owning community.
	Community coal.ID `json:"community" bson:"community_id"`

	// The body text.
	Body string `json:"body"`

	// The URL of an uploaded attachment, if any.
	FileURL string `json:"file-url" bson:"file_url"`

	// The set of liking users.
	Likes []coal.ID `json:"likes"`

	// The attached comments in order of attachment.
	Comments []coal.ID `json:"comments"`

	// The creation time. Immutable once set.
	Created time.Time `json:"created-at" bson:"created_at"`
}

// Validate implements the stick.Validatable interface.
func (p *Post) Validate() error {
	return stick.Validate(p, func(v *stick.Validator) {
		v.Value("Author", false, stick.IsNotZero)
		v.Value("Community", false, stick.IsNotZero)
		v.Value("Created", false, stick.IsNotZero)
		if p.FileURL != "" {
			v.Value("FileURL", false, stick.IsURL(true))
		} else {
			v.Value("Body", false, stick.IsNotZero)
		}
	})
}

// Comment is a user-authored reply attached to a post. Comments are never
// mutated after creation.
type Comment struct {
	coal.Base `json:"-" bson:",inline" coal:"comments"`

	// The authoring user.
	Author coal.ID `json:"author" bson:"author_id"`

	// The parent post.
	Post coal.ID `json:"post" bson:"post_id"`

	// The body text.
	Body string `json:"body"`

	// The creation time.
	Created time.Time `json:"created-at" bson:"created_at"`
}

// Validate implements the stick.Validatable interface.
func (c *Comment) Validate() error {
	return stick.Validate(c, func(v *stick.Validator) {
		v.Value("Author", false, stick.IsNotZero)
		v.Value("Post", false, stick.IsNotZero)
		v.Value("Body", false, stick.IsNotZero)
		v.Value("Created", false, stick.IsNotZero)
	})
}

// Relationship is a directional follow edge between two users.
type Relationship struct {
	coal.Base `json:"-" bson:",inline" coal:"relationships"`

	// The following user.
	Follower coal.ID `json:"follower" bson:"follower_id"`

	// The followed user.
	Following coal.ID `json:"following" bson:"following_id"`

	// The creation time.
	Created time.Time `json:"created-at" bson:"created_at"`
}

// Validate implements the stick.Validatable interface.
func (r *Relationship) Validate() error {
	// reject reflexive edges
	if r.Follower == r.Following {
		return xo.F("reflexive relationship")
	}

	return stick.Validate(r, func(v *stick.Validator) {
		v.Value("Follower", false, stick.IsNotZero)
		v.Value("Following", false, stick.IsNotZero)
	})
}

// Report flags a post once per reporting user. Its existence is the flag,
// repeated reports are not counted.
type Report struct {
	coal.Base `json:"-" bson:",inline" coal:"reports"`

	// The reported post.
	Post coal.ID `json:"post" bson:"post_id"`

	// The reporting user.
	Reporter coal.ID `json:"reporter" bson:"reporter_id"`

	// The creation time.
	Created time.Time `json:"created-at" bson:"created_at"`
}

// Validate implements the stick.Validatable interface.
func (r *Report) Validate() error {
	return stick.Validate(r, func(v *stick.Validator) {
		v.Value("Post", false, stick.IsNotZero)
		v.Value("Reporter", false, stick.IsNotZero)
	})
}
