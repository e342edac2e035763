package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/any-hub/symhub/internal/symsrv"
)

// fetchRequest 是 --fetch 模式解析后的获取目标。
type fetchRequest struct {
	name string
	info symsrv.FileInfo
}

// fetchFlags 收集单次获取相关的标志；三种哈希来源必须且只能指定一种。
type fetchFlags struct {
	name      string
	hash      string
	guid      string
	age       string
	timestamp string
	size      string
}

func (f *fetchFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.name, "fetch", "", "单次获取指定文件（例如 ntdll.pdb）后退出")
	fs.StringVar(&f.hash, "hash", "", "直接指定服务器目录哈希")
	fs.StringVar(&f.guid, "guid", "", "PDB GUID（支持带或不带连字符/花括号）")
	fs.StringVar(&f.age, "age", "", "PDB age（十进制或 0x 十六进制）")
	fs.StringVar(&f.timestamp, "timestamp", "", "PE TimeDateStamp（十进制或 0x 十六进制）")
	fs.StringVar(&f.size, "size", "", "PE SizeOfImage（十进制或 0x 十六进制）")
}

// build 校验标志组合并生成 fetchRequest；未指定 --fetch 时返回 nil。
func (f *fetchFlags) build(fs *flag.FlagSet) (*fetchRequest, error) {
	hashChanged := fs.Changed("hash")
	pdbChanged := fs.Changed("guid") || fs.Changed("age")
	exeChanged := fs.Changed("timestamp") || fs.Changed("size")

	name := strings.TrimSpace(f.name)
	if name == "" {
		if hashChanged || pdbChanged || exeChanged {
			return nil, errors.New("--hash/--guid/--age/--timestamp/--size 需要配合 --fetch 使用")
		}
		return nil, nil
	}

	sources := 0
	for _, changed := range []bool{hashChanged, pdbChanged, exeChanged} {
		if changed {
			sources++
		}
	}
	if sources != 1 {
		return nil, errors.New("--fetch 需要且只能指定 --hash、--guid/--age 或 --timestamp/--size 之一")
	}

	var info symsrv.FileInfo
	switch {
	case hashChanged:
		hash := strings.TrimSpace(f.hash)
		if hash == "" {
			return nil, errors.New("--hash 不能为空")
		}
		info = symsrv.RawHash(hash)
	case pdbChanged:
		guid, err := symsrv.ParseGUID(f.guid)
		if err != nil {
			return nil, fmt.Errorf("--guid: %w", err)
		}
		age, err := parseUint32("age", f.age)
		if err != nil {
			return nil, err
		}
		info = symsrv.PdbInfo{GUID: guid, Age: age}
	default:
		timestamp, err := parseUint32("timestamp", f.timestamp)
		if err != nil {
			return nil, err
		}
		size, err := parseUint32("size", f.size)
		if err != nil {
			return nil, err
		}
		info = symsrv.ExeInfo{Timestamp: timestamp, Size: size}
	}
	return &fetchRequest{name: name, info: info}, nil
}

func parseUint32(flagName, raw string) (uint32, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("--%s 不能为空", flagName)
	}
	value, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flagName, err)
	}
	return uint32(value), nil
}
