package symsrv

import (
	"os"
	"path/filepath"
	"strings"
)

// TwoTierMarker 存在于缓存根目录时表示使用两级目录结构。
const TwoTierMarker = "index2.txt"

// IsTwoTier 判断缓存根目录是否为两级结构。每次调用都重新检查文件系统，
// 因为目录布局可能在两次运行之间变化。
//
//	single-tier: <cache>/ntdll.pdb/<hash>/ntdll.pdb
//	two-tier:    <cache>/nt/ntdll.pdb/<hash>/ntdll.pdb
func IsTwoTier(root string) bool {
	_, err := os.Stat(filepath.Join(root, TwoTierMarker))
	return err == nil
}

// TwoTierPrefix 返回文件名前两个字符的小写形式；不足两个字符时返回小写后的原值。
func TwoTierPrefix(name string) string {
	runes := []rune(name)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToLower(string(runes))
}

// RelativePath 计算符号文件相对缓存根目录的路径，按 IsTwoTier 的结果选择布局。
func RelativePath(root, name, hash string) string {
	if IsTwoTier(root) {
		return filepath.Join(TwoTierPrefix(name), name, hash, name)
	}
	return filepath.Join(name, hash, name)
}

// CachePath 返回符号文件在缓存中的完整路径。
func CachePath(root, name, hash string) string {
	return filepath.Join(root, RelativePath(root, name, hash))
}

// RemotePath 返回追加到服务器根地址后的相对路径 <name>/<hash>/<name>。
func RemotePath(name, hash string) string {
	return name + "/" + hash + "/" + name
}

// RemoteURL 拼出下载地址 <server_url>/<name>/<hash>/<name>，不对 server_url 做归一化。
func RemoteURL(serverURL, name, hash string) string {
	return serverURL + "/" + RemotePath(name, hash)
}
