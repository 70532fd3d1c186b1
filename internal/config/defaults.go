package config

const (
	defaultLogDir          = "~/.local/share/icloudsort/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultExifToolBinary  = "exiftool"
	defaultExifToolTimeout = 30
	defaultWorkers         = 4
	defaultUnsortedDir     = "unsorted"

	// Column names as written by the export's "Photo Details" and
	// "Shared Library Details" CSV files.
	defaultFilenameColumn    = "imgName"
	defaultChecksumColumn    = "fileChecksum"
	defaultCreatedColumn     = "originalCreationDate"
	defaultImportedColumn    = "importDate"
	defaultContributedColumn = "contributedByMe"
	defaultDeletedColumn     = "deleted"
	defaultLatitudeColumn    = "latitude"
	defaultLongitudeColumn   = "longitude"
	defaultAlbumColumn       = "album"
	defaultFavoriteColumn    = "favorite"
	defaultDescriptionColumn = "description"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		CSV: CSV{
			FilenameColumn:    defaultFilenameColumn,
			ChecksumColumn:    defaultChecksumColumn,
			CreatedColumn:     defaultCreatedColumn,
			ImportedColumn:    defaultImportedColumn,
			ContributedColumn: defaultContributedColumn,
			DeletedColumn:     defaultDeletedColumn,
			LatitudeColumn:    defaultLatitudeColumn,
			LongitudeColumn:   defaultLongitudeColumn,
			AlbumColumn:       defaultAlbumColumn,
			FavoriteColumn:    defaultFavoriteColumn,
			DescriptionColumn: defaultDescriptionColumn,
		},
		ExifTool: ExifTool{
			Binary:         defaultExifToolBinary,
			TimeoutSeconds: defaultExifToolTimeout,
		},
		Organize: Organize{
			Workers:     defaultWorkers,
			UnsortedDir: defaultUnsortedDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
