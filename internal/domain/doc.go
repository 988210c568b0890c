// Package domain defines the core flashcard types shared by every other package.
package domain
