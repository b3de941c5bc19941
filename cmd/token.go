package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"wagermatch/auth"
	"wagermatch/models"
)

const defaultTokenTTL = 24 * time.Hour

// IssueToken signs a session token for local testing against a running server.
// args are <user-id> [display-name] [ttl].
func IssueToken(secret string, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wagermatch token <user-id> [display-name] [ttl]")
	}

	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	identity := &models.Identity{UserID: userID}
	if len(args) > 1 {
		identity.DisplayName = args[1]
	}

	ttl := defaultTokenTTL
	if len(args) > 2 {
		ttl, err = time.ParseDuration(args[2])
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", args[2], err)
		}
		if ttl <= 0 {
			return fmt.Errorf("ttl must be positive, got %s", ttl)
		}
	}

	token, err := auth.NewJWTVerifier(secret).GenerateToken(identity, ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
