package config

// Blob store backends for published snapshots.
const (
	BlobBackendMemory = "memory"
	BlobBackendFS     = "fs"
	BlobBackendS3     = "s3"
)

// BlobConfig describes the remote file store that receives layout
// snapshots.  Endpoint and PathStyle cover S3-compatible services such as
// the hosted backend's storage API.  AgeRecipient turns on encryption of
// every uploaded object; AgeIdentity lets seatctl read them back.
type BlobConfig struct {
	Backend      string
	Dir          string
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	PathStyle    bool
	Prefix       string
	AgeRecipient string
	AgeIdentity  string
}

// LoadBlobConfig reads the BLOB_* variables.
func LoadBlobConfig() BlobConfig {
	return BlobConfig{
		Backend:      envStr("BLOB_BACKEND", BlobBackendFS),
		Dir:          envStr("BLOB_DIR", "data/blobs"),
		Bucket:       envStr("BLOB_BUCKET", "seating"),
		Region:       envStr("BLOB_REGION", "us-east-1"),
		Endpoint:     envStr("BLOB_ENDPOINT", ""),
		AccessKey:    envStr("BLOB_ACCESS_KEY", ""),
		SecretKey:    envStr("BLOB_SECRET_KEY", ""),
		PathStyle:    envBool("BLOB_PATH_STYLE", false),
		Prefix:       envStr("BLOB_PREFIX", "layouts"),
		AgeRecipient: envStr("BLOB_AGE_RECIPIENT", ""),
		AgeIdentity:  envStr("BLOB_AGE_IDENTITY", ""),
	}
}
