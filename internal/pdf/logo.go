package pdf

// logoPNG is the company logo shipped with every exported quote, embedded so
// the binary needs no asset directory at runtime.
const logoPNG = "iVBORw0KGgoAAAANSUhEUgAAAPAAAAA8CAIAAADXHaAKAAAAqElEQVR42u3dUQ0AIAhFUSKQxjT2" +
	"ryEpHMrO20nA7j9xzAYtnMAEbSZoM0GbCdoEbSZos2+CzrXhWYJG0CBoEDQIGkELGkGDoEHQIGgE" +
	"LWgEDYIGQYOgEbSgETQIGgQNgkbQgkbQIGgQNAgaQQsaQYOgQdAgaAQtaAQNggZBg6ARtJMhaBA0" +
	"CBpBCxpBg6BB0HAzaLNRz+vNBG0maDNBmwnaBG0maLOuFZdkbERea6IjAAAAAElFTkSuQmCC"
