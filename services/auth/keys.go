package auth

import "fmt"

// KickedOutSentinel replaces a cached access token on logout. Revocation
// overwrites rather than deletes so a kicked-out device stays
// distinguishable from one that never logged in until the entry's TTL
// runs out.
const KickedOutSentinel = "kicked-out"

func TokenCacheKey(userID, deviceID string) string {
	return fmt.Sprintf("%s_%s_token", userID, deviceID)
}

func CodeCacheKey(email string) string {
	return fmt.Sprintf("%s_code", email)
}
