// Package color holds the terminal theme for hostrelay's CLI output.
//
// Colors adapt to the terminal background. Setup honours the environment:
//   - NO_COLOR disables all color output, including go-pretty tables
//   - HOSTRELAY_THEME forces a "dark" or "light" theme
//
// Usage:
//
//	color.Setup()
//	fmt.Println(color.TitleStyle.Render("Capabilities"))
package color
