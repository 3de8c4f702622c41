package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// BytesMD5 计算字节数组MD5
func BytesMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// IsMD5 判断字符串是否为32位十六进制MD5
func IsMD5(s string) bool {
	if len(s) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
