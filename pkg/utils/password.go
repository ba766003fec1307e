package utils

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// 密码长度限制，bcrypt 只使用前72字节
const (
	PasswordMinLen = 6
	PasswordMaxLen = 72
)

// ErrPasswordLength 密码长度不符合要求
var ErrPasswordLength = errors.New("密码长度应为6到72个字符")

// ValidatePassword 检查密码长度
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLen || len(password) > PasswordMaxLen {
		return ErrPasswordLength
	}
	return nil
}

// HashPassword 使用 bcrypt 对密码进行哈希处理
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPasswordHash 比较密码和哈希值，哈希为空时返回 false
func CheckPasswordHash(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
