// Package config loads the formset settings from a config file and FORMSET_
// environment variables, then validates them.
package config
