// Package wallpaper sets a local image file as the desktop background.
//
// Only Linux desktops are supported: GNOME (and derivatives exposing the
// org.gnome.desktop.background schema) via gsettings, with feh as a
// fallback for bare window managers.
package wallpaper
