package util

import (
	"os/exec"
	"runtime"
)

// browserCommand 各平台打开默认浏览器的命令
func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		// rundll32 在 Windows 7 上比 cmd /c start 更稳定
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// fallbackCommands 主方式失败时依次尝试的命令
func fallbackCommands(goos string) []string {
	switch goos {
	case "windows":
		return []string{"explorer"}
	case "linux":
		return []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"}
	default:
		return nil
	}
}

// OpenBrowser 打开默认浏览器
func OpenBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	return exec.Command(name, args...).Start()
}

// OpenBrowserWithFallback 带降级方案的浏览器打开
func OpenBrowserWithFallback(url string) error {
	err := OpenBrowser(url)
	if err == nil {
		return nil
	}
	for _, name := range fallbackCommands(runtime.GOOS) {
		if ferr := exec.Command(name, url).Start(); ferr == nil {
			return nil
		}
	}
	return err
}
