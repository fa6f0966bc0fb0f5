package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// AuthorsGroup is the group whose active members are listed as pegosteadores.
const AuthorsGroup = "Pegosteadores"

type User struct {
	ID        string
	Username  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// PegosteCount is only filled by ranking queries.
	PegosteCount int
}

// URL is the author's landing page.
func (u User) URL() string {
	return AuthorURL(u.Username)
}

var (
	usernameRegexp = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,150}$`)
	// "." and ".." would be collapsed out of the author's URLs
	usernameWordRegexp = regexp.MustCompile(`[A-Za-z0-9_-]`)
)

// Usernames that would shadow a top level route.
var reservedUsernames = map[string]bool{
	"accounts":      true,
	"favicon.ico":   true,
	"login":         true,
	"logout":        true,
	"pegoste":       true,
	"pegosteadores": true,
	"signup":        true,
	"static":        true,
}

func ValidateUsername(username string) error {
	if !usernameRegexp.MatchString(username) {
		return errors.New("use up to 150 letters, digits and . _ - only")
	}
	if !usernameWordRegexp.MatchString(username) {
		return errors.New("use at least one letter, digit, _ or -")
	}
	if reservedUsernames[strings.ToLower(username)] {
		return errors.New("this username is reserved")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must have at least 8 characters")
	}
	// bcrypt ignores everything after 72 bytes
	if len(password) > 72 {
		return errors.New("password must have at most 72 bytes")
	}
	return nil
}

func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
