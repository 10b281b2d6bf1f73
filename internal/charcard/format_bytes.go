package charcard

import "fmt"

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		if size == 1 {
			return "1 Byte"
		}
		return fmt.Sprintf("%d Bytes", size)
	}
	div := float64(size)
	units := []string{"KiB", "MiB", "GiB", "TiB"}
	exp := -1
	for div >= unit && exp < len(units)-1 {
		div /= unit
		exp++
	}
	switch {
	case div >= 100:
		return fmt.Sprintf("%.0f %s", div, units[exp])
	case div >= 10:
		return fmt.Sprintf("%.1f %s", div, units[exp])
	default:
		return fmt.Sprintf("%.2f %s", div, units[exp])
	}
}
