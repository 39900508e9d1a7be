// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

var SupportedImageExt = mapset.NewSet(
	".jpeg", ".jpg", ".JPEG", ".JPG",
	".png", ".PNG",
)

var SupportedFontExt = mapset.NewSet(
	".ttf", ".TTF",
	".otf", ".OTF",
)
