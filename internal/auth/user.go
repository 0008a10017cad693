package auth

import "golang.org/x/crypto/bcrypt"

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// RolesFor expands a stored role into the roles carried by a session.
// Admins are users too.
func RolesFor(role string) []string {
	switch role {
	case "admin":
		return []string{"admin", "user"}
	case "":
		return []string{"user"}
	default:
		return []string{role}
	}
}
