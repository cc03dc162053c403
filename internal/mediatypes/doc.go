// Package mediatypes defines which files the photowall service treats
// as images and how they are described over HTTP.
package mediatypes
