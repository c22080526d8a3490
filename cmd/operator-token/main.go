package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/wedplan-backend/pkg/auth"
	"github.com/angelmondragon/wedplan-backend/pkg/config"
	"github.com/angelmondragon/wedplan-backend/pkg/enums"
)

// operator-token mints a short-lived bearer token for the staff billing
// routes using the service's WEDPLAN_JWT_* settings.
func main() {
	subject := flag.String("subject", "", "operator email or id recorded in the token")
	role := flag.String("role", enums.StaffRoleOperator.String(), "operator|support")
	flag.Parse()

	token, err := mint(*subject, *role, time.Now().UTC())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func mint(subject, rawRole string, now time.Time) (string, error) {
	_ = godotenv.Load()
	cfg, err := config.LoadJWT()
	if err != nil {
		return "", err
	}
	role, err := enums.ParseStaffRole(rawRole)
	if err != nil {
		return "", err
	}
	return auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{Subject: subject, Role: role})
}
