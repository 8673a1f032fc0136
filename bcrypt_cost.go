//go:build !race

package onboard

func passwordHashCost() int {
	return 14
}
