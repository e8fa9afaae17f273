package repository

import "time"

const timeLayout = time.RFC3339Nano

func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}

