package session

import "crypto/subtle"

// Verify 比较提交的密码与存储的凭据是否逐字节一致。
// 凭据校验只在这里发生；升级为哈希存储时只需替换此函数。
func Verify(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
