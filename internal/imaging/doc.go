// Package imaging implements the image capabilities of the tool: burning
// a timestamp caption into downloaded images and assembling a directory
// of images into an animated GIF.
//
// Captions are drawn with a fixed bitmap face from golang.org/x/image;
// animation frames are palette-quantized with Floyd-Steinberg dithering
// before GIF encoding.
package imaging
