package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/256dpi/xo"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/256dpi/fire/coal"
	"github.com/256dpi/fire/stick"

	"github.com/256dpi/ember/models"
)

// TokenLifetime is the lifetime of issued access tokens.
const TokenLifetime = 24 * time.Hour

// ErrInvalidToken is returned if a bearer token is missing or invalid.
var ErrInvalidToken = xo.BF("invalid token")

type viewerKey struct{}

// IssueToken will issue a signed token carrying the specified user as its
// subject.
func IssueToken(secret []byte, user coal.ID) (string, error) {
	// prepare claims
	claims := jwt.RegisteredClaims{
		Subject:   user.Hex(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenLifetime)),
	}

	// sign token
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", xo.W(err)
	}

	return token, nil
}

// VerifyToken will verify the specified token and return the carried user.
func VerifyToken(secret []byte, token string) (coal.ID, error) {
	// parse token
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(tkn *jwt.Token) (interface{}, error) {
		if tkn.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken.Wrap()
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return stick.Z[coal.ID](), ErrInvalidToken.Wrap()
	}

	// parse subject
	user, err := coal.FromHex(claims.Subject)
	if err != nil {
		return stick.Z[coal.ID](), ErrInvalidToken.Wrap()
	}

	return user, nil
}

// Viewer will return the authenticated viewer stored in the request context.
func Viewer(r *http.Request) coal.ID {
	viewer, _ := r.Context().Value(viewerKey{}).(coal.ID)
	return viewer
}

func withViewer(r *http.Request, viewer coal.ID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), viewerKey{}, viewer))
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	// decode credentials
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &input) {
		return
	}

	// find user
	var user models.User
	found, err := h.store.M(&models.User{}).FindFirst(r.Context(), &user, bson.M{
		"Email": input.Email,
	}, nil, 0, false)
	if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	// check credentials
	if !found || !user.ValidPassword(input.Password) {
		respond(w, http.StatusUnauthorized, payload{"message": "Invalid credentials"})
		return
	}

	// issue token
	token, err := IssueToken(h.secret, user.ID())
	if err != nil {
		h.fail(w, err, "Server error")
		return
	}

	respond(w, http.StatusOK, payload{
		"token": token,
		"user": payload{
			"id":     user.ID(),
			"name":   user.Name,
			"email":  user.Email,
			"avatar": user.Avatar,
		},
	})
}
