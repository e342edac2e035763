package symsrv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// FileInfo 标识一个符号文件在符号服务器上的身份，只有 ExeInfo、PdbInfo、RawHash 三种实现。
// 所有实现都是可比较的值类型，可以直接作为 map 键。
type FileInfo interface {
	// Hash 返回符号服务器路径中间段使用的规范哈希串。
	Hash() string
	// Kind 返回变体名称，供日志使用。
	Kind() string

	isFileInfo()
}

// ExeInfo 描述可执行文件（PE 头中的 TimeDateStamp 与 SizeOfImage）。
type ExeInfo struct {
	Timestamp uint32
	Size      uint32
}

// Hash 输出 8 位补零小写时间戳 + 不补零小写 size。
func (i ExeInfo) Hash() string {
	return fmt.Sprintf("%08x%x", i.Timestamp, i.Size)
}

func (ExeInfo) Kind() string { return "exe" }

func (ExeInfo) isFileInfo() {}

// PdbInfo 描述 PDB 文件（CodeView GUID 与 age）。
type PdbInfo struct {
	GUID GUID
	Age  uint32
}

// Hash 输出 32 位大写 GUID + 不补零小写 age。
func (i PdbInfo) Hash() string {
	return i.GUID.String() + fmt.Sprintf("%x", i.Age)
}

func (PdbInfo) Kind() string { return "pdb" }

func (PdbInfo) isFileInfo() {}

// RawHash 是调用方预先计算好的符号服务器哈希，原样透传。
type RawHash string

func (h RawHash) Hash() string { return string(h) }

func (RawHash) Kind() string { return "raw" }

func (RawHash) isFileInfo() {}

// GUID 是按大端序保存的 128 位无符号整数。
type GUID [16]byte

// GUIDFromUint64 由高/低 64 位拼出 GUID。
func GUIDFromUint64(hi, lo uint64) GUID {
	var g GUID
	for i := 0; i < 8; i++ {
		g[7-i] = byte(hi >> (8 * i))
		g[15-i] = byte(lo >> (8 * i))
	}
	return g
}

// String 返回 32 位大写十六进制，无分隔符。
func (g GUID) String() string {
	return strings.ToUpper(hex.EncodeToString(g[:]))
}

// ParseGUID 解析 32 位十六进制 GUID，允许外层花括号和 '-' 分隔符，
// 例如 "{3844DBB9-2017-4967-BE7A-A4A2C20430FA}"。
func ParseGUID(raw string) (GUID, error) {
	var g GUID
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 32 {
		return g, fmt.Errorf("invalid guid %q: want 32 hex digits", raw)
	}
	if _, err := hex.Decode(g[:], []byte(s)); err != nil {
		return g, fmt.Errorf("invalid guid %q: %w", raw, err)
	}
	return g, nil
}
